package detail

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	slotsdk "slotconsole/sdk/go"
)

func TestOverbooked(t *testing.T) {
	assert.True(t, Overbooked(6, 5))
	assert.False(t, Overbooked(5, 5))
	assert.False(t, Overbooked(0, 0))
}

func TestSlotOccupancy(t *testing.T) {
	s := slotsdk.Slot{}
	assert.Equal(t, Frei, SlotOccupancy(s))
	s.ZugewieseneAnfragen = []slotsdk.Populated[slotsdk.Anfrage]{slotsdk.Ref[slotsdk.Anfrage]("a1")}
	assert.Equal(t, Einfach, SlotOccupancy(s))
	s.ZugewieseneAnfragen = append(s.ZugewieseneAnfragen, slotsdk.Ref[slotsdk.Anfrage]("a2"))
	assert.Equal(t, Mehrfach, SlotOccupancy(s))
}

func TestKonfliktTriggerForPotAndSlot(t *testing.T) {
	raw := `{
		"_id": "k1",
		"konfliktTyp": "KAPAZITAETSTOPF",
		"ausloesenderKapazitaetstopf": {
			"_id": "t1", "TopfID": "TPF-1", "maxKapazitaet": 2,
			"ListeDerSlots": [{"_id": "s1", "SlotID_Sprechend": "SLT-1"}, "s2"]
		},
		"beteiligteAnfragen": ["a1", "a2", "a3"]
	}`
	var k slotsdk.Konflikt
	require.NoError(t, json.Unmarshal([]byte(raw), &k))

	tr := KonfliktTrigger(k)
	assert.True(t, tr.IsTopf)
	assert.Equal(t, "TPF-1", tr.SpeakingID)
	assert.Equal(t, 2, tr.MaxCapacity)
	require.Len(t, tr.Slots, 1)
	assert.Equal(t, "SLT-1", tr.Slots[0].SlotIDSprechend)
	assert.Equal(t, "3 / 2", Auslastung(k))
	assert.True(t, KonfliktOverbooked(k))

	raw = `{"_id": "k2", "konfliktTyp": "SLOT", "ausloesenderSlot": {"_id": "s9", "SlotID_Sprechend": "SLT-9"}, "beteiligteAnfragen": ["a1"]}`
	k = slotsdk.Konflikt{}
	require.NoError(t, json.Unmarshal([]byte(raw), &k))
	tr = KonfliktTrigger(k)
	assert.False(t, tr.IsTopf)
	assert.Equal(t, "SLT-9", tr.SpeakingID)
	assert.Equal(t, 1, tr.MaxCapacity)
	assert.Equal(t, "Konflikt-Slot", tr.SlotsHeader)
	assert.False(t, KonfliktOverbooked(k))
}

func TestNeighbourAndFee(t *testing.T) {
	assert.Equal(t, "-", Neighbour(slotsdk.Populated[slotsdk.Kapazitaetstopf]{}))
	assert.Equal(t, "t7", Neighbour(slotsdk.Ref[slotsdk.Kapazitaetstopf]("t7")))
	assert.Equal(t, "TPF-7", Neighbour(slotsdk.Of("t7", slotsdk.Kapazitaetstopf{TopfID: "TPF-7"})))

	assert.Equal(t, "N/A", Fee(decimal.NullDecimal{}))
	assert.Equal(t, "120.50", Fee(decimal.NewNullDecimal(decimal.RequireFromString("120.5"))))
}

func TestTopfOverbooked(t *testing.T) {
	topf := slotsdk.Kapazitaetstopf{MaxKapazitaet: 5}
	for i := 0; i < 5; i++ {
		topf.ListeDerAnfragen = append(topf.ListeDerAnfragen, slotsdk.Ref[slotsdk.Anfrage]("a"))
	}
	assert.False(t, TopfOverbooked(topf))
	topf.ListeDerAnfragen = append(topf.ListeDerAnfragen, slotsdk.Ref[slotsdk.Anfrage]("b"))
	assert.True(t, TopfOverbooked(topf))
}
