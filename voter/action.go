// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package voter

import (
	"fmt"
)

// VoterWeightAction is the governance action a voter weight is computed for.
// Values follow the on-chain addin API ordering
type VoterWeightAction uint8

const (
	CastVote VoterWeightAction = iota
	CommentProposal
	CreateGovernance
	CreateProposal
	SignOffProposal
)

var voterWeightActionNames = map[VoterWeightAction]string{
	CastVote:         "castVote",
	CommentProposal:  "commentProposal",
	CreateGovernance: "createGovernance",
	CreateProposal:   "createProposal",
	SignOffProposal:  "signOffProposal",
}

// AllVoterWeightActions returns every known action in on-chain order
func AllVoterWeightActions() []VoterWeightAction {
	return []VoterWeightAction{
		CastVote,
		CommentProposal,
		CreateGovernance,
		CreateProposal,
		SignOffProposal,
	}
}

func (a VoterWeightAction) Valid() bool {
	_, ok := voterWeightActionNames[a]
	return ok
}

func (a VoterWeightAction) String() string {
	if name, ok := voterWeightActionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(a))
}

// ParseVoterWeightAction accepts the camelCase action name
func ParseVoterWeightAction(s string) (VoterWeightAction, error) {
	for action, name := range voterWeightActionNames {
		if name == s {
			return action, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVoterWeightAction, s)
}

func (a VoterWeightAction) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVoterWeightAction, uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *VoterWeightAction) UnmarshalText(data []byte) error {
	tmp, err := ParseVoterWeightAction(string(data))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}
