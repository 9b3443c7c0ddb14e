package services

import "context"

// VoterChain asks its voters in order until one completes the vote.
//
// Example:
//
//	chain := NewVoterChain(
//	    NewLocationVoter(locations, time.Now),
//	    NewLocationGroupVoter(groups, time.Now),
//	)
//	vote := NewRedirectVote(o, &newLocation, nil)
//	if err := chain.Vote(ctx, vote); err != nil {
//	    return err
//	}
//	if !vote.IsComplete() {
//	    // order could not be redirected
//	}
type VoterChain struct {
	voters []Voter
}

func NewVoterChain(voters ...Voter) VoterChain {
	return VoterChain{voters: voters}
}

// Vote runs the chain. A lookup failure of any voter aborts the chain.
func (c VoterChain) Vote(ctx context.Context, v *RedirectVote) error {
	for _, voter := range c.voters {
		if err := voter.Vote(ctx, v); err != nil {
			return err
		}
		if v.IsComplete() {
			return nil
		}
	}
	return nil
}
