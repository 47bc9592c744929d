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

package types

// ProtocolId identifies the application protocol of a message; behaviours filter on it.
type ProtocolId = uint8

const (
	ProtocolCAM       ProtocolId = 0x01
	ProtocolDENM      ProtocolId = 0x02
	ProtocolTMCAdvice ProtocolId = 0x03
	ProtocolData      ProtocolId = 0x04
)

// CommType is how the network substrate should deliver an outgoing message.
type CommType = uint8

const (
	CommUnicast       CommType = 0x01
	CommGeoBroadcast  CommType = 0x02
	CommTopoBroadcast CommType = 0x03
)

// Approach directions of an RSU, used as aggregation keys.
const (
	DirectionNorth = "N"
	DirectionEast  = "E"
	DirectionSouth = "S"
	DirectionWest  = "W"
)

// HeadingToDirection maps a heading in degrees (0 = north, clockwise) onto an approach direction.
func HeadingToDirection(heading float32) string {
	h := float64(heading)
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	switch {
	case h < 45 || h >= 315:
		return DirectionNorth
	case h < 135:
		return DirectionEast
	case h < 225:
		return DirectionSouth
	default:
		return DirectionWest
	}
}
