package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"player-auction/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// IncrementBand requires Step crore on top of the current high bid for
// amounts at or above From crore.
type IncrementBand struct {
	From float64 `json:"from"`
	Step float64 `json:"step"`
}

// defaultBands mirror common televised-auction paddle steps.
var defaultBands = []IncrementBand{
	{From: 0, Step: 0.05},
	{From: 1, Step: 0.10},
	{From: 2, Step: 0.20},
	{From: 5, Step: 0.25},
}

// Schedule is an in-memory, monotonic increment step function.
type Schedule struct {
	bands []IncrementBand
}

func NewSchedule(bands []IncrementBand) (*Schedule, error) {
	if len(bands) == 0 {
		bands = defaultBands
	}
	sorted := append([]IncrementBand(nil), bands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Step < sorted[i-1].Step {
			return nil, domain.ErrScheduleNotMonotonic
		}
	}
	return &Schedule{bands: sorted}, nil
}

func DefaultSchedule() *Schedule {
	s, _ := NewSchedule(nil)
	return s
}

func (s *Schedule) RequiredIncrement(amount float64) float64 {
	step := s.bands[0].Step
	for _, b := range s.bands {
		if amount >= b.From {
			step = b.Step
		}
	}
	return step
}

func (s *Schedule) MinimumNextBid(current float64) float64 {
	// Decimal add so 0.1-crore steps never accumulate float noise.
	min := decimal.NewFromFloat(current).Add(decimal.NewFromFloat(s.RequiredIncrement(current)))
	f, _ := min.Float64()
	return f
}

const incrementBandsKey = "bid_increment_bands"

// IncrementRuleStore keeps the band table in redis so an operator can
// adjust it between runs. Missing rules self-seed with the defaults.
type IncrementRuleStore struct {
	client *redis.Client
}

func NewIncrementRuleStore(client *redis.Client) *IncrementRuleStore {
	return &IncrementRuleStore{client: client}
}

func (s *IncrementRuleStore) LoadSchedule(ctx context.Context) (*Schedule, error) {
	data, err := s.client.Get(ctx, incrementBandsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			if err := s.saveBands(ctx, defaultBands); err != nil {
				return nil, err
			}
			return NewSchedule(defaultBands)
		}
		return nil, err
	}

	var bands []IncrementBand
	if err := json.Unmarshal([]byte(data), &bands); err != nil {
		return nil, err
	}
	return NewSchedule(bands)
}

func (s *IncrementRuleStore) saveBands(ctx context.Context, bands []IncrementBand) error {
	data, err := json.Marshal(bands)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, incrementBandsKey, string(data), 0).Err()
}
