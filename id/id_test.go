package id

import (
	"strings"
	"testing"
)

func TestNewIDs(t *testing.T) {
	tests := []struct {
		name    string
		newFunc func() string
		prefix  string
	}{
		{"WalletID", func() string { return NewWalletID().String() }, string(PrefixWallet)},
		{"AgentID", func() string { return NewAgentID().String() }, string(PrefixAgent)},
		{"MerchantID", func() string { return NewMerchantID().String() }, string(PrefixMerchant)},
		{"CardID", func() string { return NewCardID().String() }, string(PrefixCard)},
		{"EntryID", func() string { return NewEntryID().String() }, string(PrefixEntry)},
		{"TransactionID", func() string { return NewTransactionID().String() }, string(PrefixTransaction)},
		{"CheckpointID", func() string { return NewCheckpointID().String() }, string(PrefixCheckpoint)},
		{"HoldID", func() string { return NewHoldID().String() }, string(PrefixHold)},
		{"PolicyID", func() string { return NewPolicyID().String() }, string(PrefixPolicy)},
		{"WebhookID", func() string { return NewWebhookID().String() }, string(PrefixWebhook)},
		{"EventID", func() string { return NewEventID().String() }, string(PrefixEvent)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.newFunc()

			if !strings.HasPrefix(id, tt.prefix+"_") {
				t.Errorf("ID %s does not have prefix %s", id, tt.prefix)
			}

			parts := strings.SplitN(id, "_", 2)
			if len(parts) != 2 {
				t.Errorf("ID %s does not have correct format", id)
			}

			if len(parts[1]) != 26 {
				t.Errorf("ID suffix %s does not have correct length (got %d, want 26)", parts[1], len(parts[1]))
			}
		})
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name      string
		parseFunc func(string) (interface{}, error)
		validID   string
		invalidID string
		wrongID   string // ID with wrong prefix
	}{
		{
			"ParseWalletID",
			func(s string) (interface{}, error) { return ParseWalletID(s) },
			"wal_01h2xcejqtf2nbrexx3vqjhp41",
			"wal_invalid",
			"agt_01h2xcejqtf2nbrexx3vqjhp41",
		},
		{
			"ParseAgentID",
			func(s string) (interface{}, error) { return ParseAgentID(s) },
			"agt_01h2xcejqtf2nbrexx3vqjhp41",
			"agt_invalid",
			"wal_01h2xcejqtf2nbrexx3vqjhp41",
		},
		{
			"ParseTransactionID",
			func(s string) (interface{}, error) { return ParseTransactionID(s) },
			"txn_01h2xcejqtf2nbrexx3vqjhp41",
			"txn_invalid",
			"wal_01h2xcejqtf2nbrexx3vqjhp41",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.parseFunc(tt.validID)
			if err != nil {
				t.Errorf("failed to parse valid ID %s: %v", tt.validID, err)
			}
			if id == nil {
				t.Errorf("parsed ID is nil for %s", tt.validID)
			}

			_, err = tt.parseFunc(tt.invalidID)
			if err == nil {
				t.Errorf("expected error parsing invalid ID %s", tt.invalidID)
			}

			_, err = tt.parseFunc(tt.wrongID)
			if err == nil {
				t.Errorf("expected error parsing ID with wrong prefix %s", tt.wrongID)
			}
			if err != nil && !strings.Contains(err.Error(), "expected prefix") {
				t.Errorf("wrong error message for incorrect prefix: %v", err)
			}
		})
	}
}

func TestParseAny(t *testing.T) {
	validIDs := []string{
		"wal_01h2xcejqtf2nbrexx3vqjhp41",
		"agt_01h2xcejqtf2nbrexx3vqjhp41",
		"mer_01h2xcejqtf2nbrexx3vqjhp41",
		"txn_01h2xcejqtf2nbrexx3vqjhp41",
		"hold_01h2xcejqtf2nbrexx3vqjhp41",
	}

	for _, id := range validIDs {
		parsed, err := ParseAny(id)
		if err != nil {
			t.Errorf("failed to parse valid ID %s: %v", id, err)
		}
		if parsed.String() != id {
			t.Errorf("parsed ID mismatch: got %s, want %s", parsed.String(), id)
		}
	}

	_, err := ParseAny("invalid_id")
	if err == nil {
		t.Error("expected error parsing invalid ID")
	}
}

func TestIDUniqueness(t *testing.T) {
	const count = 100
	ids := make(map[string]bool)

	for i := 0; i < count; i++ {
		id := NewWalletID().String()
		if ids[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != count {
		t.Errorf("expected %d unique IDs, got %d", count, len(ids))
	}
}

func TestIDSortability(t *testing.T) {
	id1 := NewWalletID()
	id2 := NewWalletID()
	id3 := NewWalletID()

	if id1.String() >= id2.String() {
		t.Logf("warning: IDs may not be perfectly time-ordered: %s >= %s", id1, id2)
	}
	if id2.String() >= id3.String() {
		t.Logf("warning: IDs may not be perfectly time-ordered: %s >= %s", id2, id3)
	}
}

func TestIDIsNil(t *testing.T) {
	var zero ID
	if !zero.IsNil() {
		t.Error("zero-value ID should report IsNil")
	}
	if zero.String() != "" {
		t.Errorf("zero-value ID should stringify to empty, got %q", zero.String())
	}

	generated := NewWalletID()
	if generated.IsNil() {
		t.Error("generated ID should not report IsNil")
	}
}

func BenchmarkNewWalletID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = NewWalletID()
	}
}

func BenchmarkParseWalletID(b *testing.B) {
	id := "wal_01h2xcejqtf2nbrexx3vqjhp41"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ParseWalletID(id)
	}
}
