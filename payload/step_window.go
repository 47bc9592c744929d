// Copyright (c) 2026, The baseApp Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package payload

import . "github.com/itetris/baseapp/types"

// StepWindow remembers the most recent distinct time steps, up to its capacity.
type StepWindow struct {
	steps []TimeStep
	head  int
	count int
}

// NewStepWindow creates a window of the given capacity; capacity <= 0 keeps nothing and never evicts.
func NewStepWindow(capacity int) *StepWindow {
	if capacity < 0 {
		capacity = 0
	}
	return &StepWindow{steps: make([]TimeStep, capacity)}
}

func (w *StepWindow) Capacity() int {
	return len(w.steps)
}

func (w *StepWindow) Len() int {
	return w.count
}

// Push adds ts as the newest step. When the window was full, the oldest step is evicted and returned.
func (w *StepWindow) Push(ts TimeStep) (evicted TimeStep, ok bool) {
	if len(w.steps) == 0 {
		return 0, false
	}
	if w.count == len(w.steps) {
		evicted = w.steps[w.head]
		ok = true
		w.steps[w.head] = ts
		w.head = (w.head + 1) % len(w.steps)
		return
	}
	w.steps[(w.head+w.count)%len(w.steps)] = ts
	w.count++
	return 0, false
}

// Oldest returns the oldest step in the window.
func (w *StepWindow) Oldest() (TimeStep, bool) {
	if w.count == 0 {
		return 0, false
	}
	return w.steps[w.head], true
}

// Newest returns the most recently pushed step.
func (w *StepWindow) Newest() (TimeStep, bool) {
	if w.count == 0 {
		return 0, false
	}
	return w.steps[(w.head+w.count-1)%len(w.steps)], true
}
