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

package node

import (
	"github.com/itetris/baseapp/storage"
	"github.com/itetris/baseapp/subscription"
)

// Subscription returns the subscription with the application's requestId.
func (n *Node) Subscription(requestId int32) (subscription.Subscription, bool) {
	for _, sub := range n.subscriptions {
		if sub.RequestId() == requestId {
			return sub, true
		}
	}
	return nil, false
}

// Subscriptions returns the active subscriptions in creation order.
func (n *Node) Subscriptions() []subscription.Subscription {
	return append([]subscription.Subscription(nil), n.subscriptions...)
}

// AskForSubscription creates the subscription requestId of kind from params and writes its first data
// to out. It returns false, and a nil error, when requestId already exists on this node.
func (n *Node) AskForSubscription(requestId int32, kind subscription.Kind, params *storage.Storage,
	out *storage.Storage) (subscription.Subscription, bool, error) {
	if existing, ok := n.Subscription(requestId); ok {
		n.log.Debugf("subscription %d already exists: %v", requestId, existing)
		return existing, false, nil
	}
	sub, err := subscription.New(n.env.Subscriptions, n.id, requestId, kind, params)
	if err != nil {
		return nil, false, err
	}
	n.subscriptions = append(n.subscriptions, sub)
	sub.InformApp(n.env.subscriptionEnv(), out)
	n.log.Debugf("subscription %v created", sub)
	return sub, true, nil
}

// IsToUnsubscribe returns whether subscription requestId exists and may end without forcing.
func (n *Node) IsToUnsubscribe(requestId int32) bool {
	sub, ok := n.Subscription(requestId)
	return ok && (sub.IsDone() || sub.IsCancelable())
}

// RemoveSubscription ends subscription requestId. It returns false if there is none.
func (n *Node) RemoveSubscription(requestId int32) bool {
	for i, sub := range n.subscriptions {
		if sub.RequestId() == requestId {
			n.subscriptions = append(n.subscriptions[:i], n.subscriptions[i+1:]...)
			if r, ok := sub.(subscription.Releaser); ok {
				r.Release(n.env.subscriptionEnv())
			}
			n.log.Debugf("subscription %v removed", sub)
			return true
		}
	}
	return false
}
