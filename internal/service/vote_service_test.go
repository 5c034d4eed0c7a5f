package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"planningpoker/internal/apperr"
	"planningpoker/internal/events"
	"planningpoker/internal/models"
)

func TestSubmitVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.player(t, "Alice")
	game := f.game(t, alice, 1, 2, 3, 5)
	round, _ := f.rounds.StartRound(ctx, alice.ID, game.ID, "")

	vote, err := f.votes.SubmitVote(ctx, alice.ID, round.ID, models.Card{Value: 3})
	if err != nil {
		t.Fatalf("SubmitVote() error = %v", err)
	}
	if vote.PlayerID != alice.ID || vote.PlayerName != "Alice" || vote.Card.Value != 3 {
		t.Errorf("SubmitVote() = %+v", vote)
	}

	// Resubmitting replaces the vote
	if _, err := f.votes.SubmitVote(ctx, alice.ID, round.ID, models.Card{Value: 5}); err != nil {
		t.Fatalf("second SubmitVote() error = %v", err)
	}

	// An illegal card leaves the previous vote untouched
	_, err = f.votes.SubmitVote(ctx, alice.ID, round.ID, models.Card{Value: 4})
	assertKind(t, err, apperr.KindBadRequest)

	votes, err := f.votes.ListVotes(ctx, alice.ID, round.ID)
	if err != nil {
		t.Fatalf("ListVotes() error = %v", err)
	}
	if len(votes) != 1 || votes[0].Card.Value != 5 {
		t.Errorf("ListVotes() = %+v, want a single vote of 5", votes)
	}

	submitted := 0
	for _, name := range f.sink.Names() {
		if name == events.VoteSubmitted {
			submitted++
		}
	}
	if submitted != 2 {
		t.Errorf("voteSubmitted emitted %d times, want 2", submitted)
	}
}

func TestSubmitVoteErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.player(t, "Alice")
	bob := f.player(t, "Bob")
	game := f.game(t, alice, 1, 2, 3)
	round, _ := f.rounds.StartRound(ctx, alice.ID, game.ID, "")

	tests := []struct {
		name     string
		callerID string
		roundID  string
		card     int
		want     apperr.Kind
	}{
		{name: "not a member", callerID: bob.ID, roundID: round.ID, card: 1, want: apperr.KindForbidden},
		{name: "unknown round", callerID: alice.ID, roundID: "missing", card: 1, want: apperr.KindNotFound},
		{name: "card not playable", callerID: alice.ID, roundID: round.ID, card: 13, want: apperr.KindBadRequest},
		{name: "no session", callerID: "", roundID: round.ID, card: 1, want: apperr.KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.votes.SubmitVote(ctx, tt.callerID, tt.roundID, models.Card{Value: tt.card})
			assertKind(t, err, tt.want)
		})
	}

	votes, _ := f.votes.ListVotes(ctx, alice.ID, round.ID)
	if len(votes) != 0 {
		t.Errorf("rejected votes were recorded: %+v", votes)
	}
}

func TestVotesFrozenAfterRoundEnds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.player(t, "Alice")
	game := f.game(t, alice, 1, 2, 3)
	round, _ := f.rounds.StartRound(ctx, alice.ID, game.ID, "")

	if _, err := f.votes.SubmitVote(ctx, alice.ID, round.ID, models.Card{Value: 2}); err != nil {
		t.Fatalf("SubmitVote() error = %v", err)
	}
	if _, err := f.rounds.EndRound(ctx, alice.ID, game.ID, round.ID); err != nil {
		t.Fatalf("EndRound() error = %v", err)
	}

	_, err := f.votes.SubmitVote(ctx, alice.ID, round.ID, models.Card{Value: 3})
	assertKind(t, err, apperr.KindBadRequest)

	err = f.votes.RevokeVote(ctx, alice.ID, round.ID)
	assertKind(t, err, apperr.KindBadRequest)

	votes, err := f.votes.ListVotes(ctx, alice.ID, round.ID)
	if err != nil || len(votes) != 1 || votes[0].Card.Value != 2 {
		t.Errorf("closed round votes = %+v, %v; want the single vote of 2", votes, err)
	}
}

func TestRevokeVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.player(t, "Alice")
	bob := f.player(t, "Bob")
	game := f.game(t, alice, 1, 2, 3)
	f.join(t, bob, game)
	round, _ := f.rounds.StartRound(ctx, alice.ID, game.ID, "")

	// Revoking without a vote is a no-op
	if err := f.votes.RevokeVote(ctx, alice.ID, round.ID); err != nil {
		t.Fatalf("RevokeVote() without vote error = %v", err)
	}

	f.votes.SubmitVote(ctx, alice.ID, round.ID, models.Card{Value: 1})
	f.votes.SubmitVote(ctx, bob.ID, round.ID, models.Card{Value: 2})

	if err := f.votes.RevokeVote(ctx, alice.ID, round.ID); err != nil {
		t.Fatalf("RevokeVote() error = %v", err)
	}
	if err := f.votes.RevokeVote(ctx, alice.ID, round.ID); err != nil {
		t.Fatalf("second RevokeVote() error = %v", err)
	}

	votes, _ := f.votes.ListVotes(ctx, bob.ID, round.ID)
	if len(votes) != 1 || votes[0].PlayerID != bob.ID {
		t.Errorf("only Bob's vote should remain, got %+v", votes)
	}

	revoked := 0
	for _, name := range f.sink.Names() {
		if name == events.VoteRevoked {
			revoked++
		}
	}
	if revoked != 1 {
		t.Errorf("voteRevoked emitted %d times, want 1", revoked)
	}

	err := f.votes.RevokeVote(ctx, f.player(t, "Eve").ID, round.ID)
	assertKind(t, err, apperr.KindForbidden)
}

func TestConcurrentVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.player(t, "Alice")
	game := f.game(t, alice, 1, 2, 3, 5, 8)
	round, _ := f.rounds.StartRound(ctx, alice.ID, game.ID, "")

	voters := []*models.Player{alice}
	for i := 0; i < 4; i++ {
		p := f.player(t, fmt.Sprintf("Voter %d", i))
		f.join(t, p, game)
		voters = append(voters, p)
	}

	var wg sync.WaitGroup
	for _, p := range voters {
		for _, value := range []int{1, 2, 3, 5, 8} {
			wg.Add(1)
			go func(playerID string, value int) {
				defer wg.Done()
				if _, err := f.votes.SubmitVote(ctx, playerID, round.ID, models.Card{Value: value}); err != nil {
					t.Errorf("SubmitVote() error = %v", err)
				}
			}(p.ID, value)
		}
	}
	wg.Wait()

	votes, err := f.votes.ListVotes(ctx, alice.ID, round.ID)
	if err != nil {
		t.Fatalf("ListVotes() error = %v", err)
	}
	seen := map[string]bool{}
	for _, v := range votes {
		if seen[v.PlayerID] {
			t.Errorf("player %s has more than one vote", v.PlayerID)
		}
		seen[v.PlayerID] = true
	}
	if len(votes) != len(voters) {
		t.Errorf("got %d votes, want one per player (%d)", len(votes), len(voters))
	}
}
