package explorer

import (
	"time"

	"ptrack/pkg/models"
	"ptrack/pkg/state"
)

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventCycleStarted  EventType = "cycle_started"
	EventNativeUpdated EventType = "native_updated"
	EventTokensUpdated EventType = "tokens_updated"
	EventNFTsUpdated   EventType = "nfts_updated"
	EventCycleFinished EventType = "cycle_finished"
)

// Event represents one step of a fetch cycle. Data holds a
// models.Resource[models.AssetBalance] for native and token updates and a
// models.Resource[models.NftRecord] for NFT updates.
type Event struct {
	Type    EventType
	Cycle   uint64
	Query   models.WalletQuery
	Data    interface{}
	Elapsed time.Duration
}

// Apply folds the event into s. Every surface keeps its state by applying
// the same events in arrival order.
func (e Event) Apply(s *state.ViewState) {
	switch e.Type {
	case EventCycleStarted:
		s.Begin(e.Cycle, e.Query)
	case EventNativeUpdated:
		if r, ok := e.Data.(models.Resource[models.AssetBalance]); ok {
			s.SetNative(r)
		}
	case EventTokensUpdated:
		if r, ok := e.Data.(models.Resource[models.AssetBalance]); ok {
			s.SetTokens(r)
		}
	case EventNFTsUpdated:
		if r, ok := e.Data.(models.Resource[models.NftRecord]); ok {
			s.SetNFTs(r)
		}
	case EventCycleFinished:
		s.Finish(e.Cycle)
	}
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
