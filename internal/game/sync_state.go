// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/engine"
)

// ObfPlayerState represents one seat from the perspective of a requesting user.
type ObfPlayerState struct {
	PlayerID      uuid.UUID     `json:"playerId"`
	Name          string        `json:"name"`
	Seat          int           `json:"seat"`
	Team          int           `json:"team"`
	IsCOM         bool          `json:"isCom"`
	Connected     bool          `json:"connected"`
	HandSize      int           `json:"handSize"`
	IsPasser      bool          `json:"isPasser"`
	IsCurrentTurn bool          `json:"isCurrentTurn"`
	Hand          []engine.Card `json:"hand,omitempty"` // own hand, or the open declarer's
}

// ObfGameState is the view of a match a single player is allowed to see.
type ObfGameState struct {
	MatchID         uuid.UUID                `json:"matchId"`
	Phase           engine.Phase             `json:"phase"`
	Round           int                      `json:"round"`
	CurrentPlayerID uuid.UUID                `json:"currentPlayerId"`
	Players         []ObfPlayerState         `json:"players"`
	AgariPending    bool                     `json:"agariPending"`
	Declarations    []engine.BlowDeclaration `json:"declarations"`
	CurrentHighest  *engine.BlowDeclaration  `json:"currentHighest,omitempty"`
	Trump           engine.TrumpType         `json:"trumpType"`
	DeclarerID      uuid.UUID                `json:"declarerId"`
	Negri           *engine.Card             `json:"negri,omitempty"` // only for the declarer
	NegriSelected   bool                     `json:"negriSelected"`
	Field           *engine.Field            `json:"field,omitempty"`
	Fields          []engine.CompletedField  `json:"completedFields"`
	TricksByTeam    [2]int                   `json:"tricksByTeam"`
	OpenDeclarerID  uuid.UUID                `json:"openDeclarerId"`
	Scores          [2]engine.TeamScore      `json:"teamScores"`
	PointsToWin     float64                  `json:"pointsToWin"`
	WinningTeam     *int                     `json:"winningTeam,omitempty"`
	LegalPlays      []engine.Card            `json:"legalPlays,omitempty"`
	Rules           HouseRules               `json:"rules"`
}

// SyncState generates a snapshot of the match for the requesting user.
// uuid.Nil yields the spectator view.
func (m *Match) SyncState(forUser uuid.UUID) ObfGameState {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.obfuscatedState(forUser)
}

// obfuscatedState copies everything it returns so the snapshot can be
// marshalled after the lock is released.
// Assumes lock is held.
func (m *Match) obfuscatedState(forUser uuid.UUID) ObfGameState {
	g := m.game
	obf := ObfGameState{
		MatchID:        m.ID,
		Phase:          g.Phase,
		Round:          g.Round,
		AgariPending:   g.Agari != nil,
		Declarations:   append([]engine.BlowDeclaration{}, g.Blow.Declarations...),
		Trump:          g.Blow.CurrentTrump,
		DeclarerID:     g.Play.DeclarerID,
		NegriSelected:  g.Play.NegriCard != nil,
		Fields:         append([]engine.CompletedField{}, g.Play.Fields...),
		TricksByTeam:   g.TricksByTeam(),
		OpenDeclarerID: g.Play.OpenDeclarerID,
		PointsToWin:    g.PointsToWin,
		Rules:          m.HouseRules,
	}
	if cur := g.CurrentPlayer(); cur != nil && m.started && g.Phase != engine.PhaseWaiting && g.Phase != engine.PhaseMatchOver {
		obf.CurrentPlayerID = cur.ID
	}
	if h := g.Blow.CurrentHighest; h != nil {
		highest := *h
		obf.CurrentHighest = &highest
	}
	if forUser != uuid.Nil && forUser == g.Play.DeclarerID && g.Play.NegriCard != nil {
		negri := *g.Play.NegriCard
		obf.Negri = &negri
	}
	if f := g.Play.CurrentField; f != nil {
		field := *f
		field.Cards = append([]engine.PlayedCard{}, f.Cards...)
		obf.Field = &field
	}
	for i, s := range g.Scores {
		obf.Scores[i] = s
		obf.Scores[i].Records = append([]engine.TeamScoreRecord{}, s.Records...)
	}
	if g.WinningTeam != nil {
		team := *g.WinningTeam
		obf.WinningTeam = &team
	}

	for _, p := range g.Players {
		ps := ObfPlayerState{
			PlayerID:      p.ID,
			Name:          p.Name,
			Seat:          p.Seat,
			Team:          p.Team,
			IsCOM:         p.IsCOM,
			Connected:     m.connected[p.ID],
			HandSize:      len(p.Hand),
			IsPasser:      p.IsPasser,
			IsCurrentTurn: p.ID == obf.CurrentPlayerID,
		}
		open := g.Play.OpenDeclared && p.ID == g.Play.OpenDeclarerID
		if (forUser != uuid.Nil && p.ID == forUser) || open {
			ps.Hand = append([]engine.Card{}, p.Hand...)
		}
		obf.Players = append(obf.Players, ps)
	}

	if forUser != uuid.Nil {
		obf.LegalPlays = g.LegalPlays(forUser)
	}
	return obf
}
