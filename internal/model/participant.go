package model

import "fmt"

// Participant is the simulated account/character every bot listing and bid is made under.
type Participant struct {
	Account   uint32 `json:"account"`
	Character uint64 `json:"character"`
}

func (p Participant) IsZero() bool {
	return p.Account == 0 || p.Character == 0
}

// SessionName is the synthetic session label used in logs.
func (p Participant) SessionName() string {
	return fmt.Sprintf("AuctionHouseBot_%d", p.Account)
}
