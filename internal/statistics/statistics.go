// Package statistics aggregates simulated round results.
package statistics

import (
	"fmt"
	"math"
	"sort"
)

// Count buckets cover true counts from MinBucket to MaxBucket; counts beyond
// either end fall into the edge bucket.
const (
	MinBucket = -3
	MaxBucket = 5
)

// RoundResult is the outcome of one simulated round
type RoundResult struct {
	NetUnits  float64 // net result divided by the base bet
	Wagered   float64 // money risked from the balance, in base bets
	Seed      int64   // seed of the worker that played the round
	TrueCount float64 // true count when the bet was placed
	Hands     int     // player hands after splits
	FreeBet   bool    // a free double or free split was taken
	Dealer22  bool
	Blackjack bool
}

// BucketStats tracks rounds played at one true count
type BucketStats struct {
	Rounds    int
	SumUnits  float64
	SumUnits2 float64
}

// Statistics tracks simulation results in base-bet units
type Statistics struct {
	Rounds    int
	SumUnits  float64
	SumUnits2 float64   // sum of squares for variance
	Values    []float64 // every result, for median and percentiles
	Wagered   float64

	Wins   int
	Losses int
	Pushes int

	// every round lands in exactly one of these two ledgers
	FreeBetRounds int
	FreeBetUnits  float64
	PlainUnits    float64
	AllUnits      float64

	Dealer22s  int
	Blackjacks int
	SplitHands int // extra hands created by splits

	BiggestWin  float64
	BiggestLoss float64

	Buckets [MaxBucket - MinBucket + 1]BucketStats
}

// BucketIndex maps a true count to its bucket
func BucketIndex(trueCount float64) int {
	tc := int(math.Round(trueCount))
	tc = max(MinBucket, min(MaxBucket, tc))
	return tc - MinBucket
}

// Mean returns the average result per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumUnits / float64(s.Rounds)
}

// Variance returns the sample variance of the results
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumUnits2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// HouseEdge is the player's loss per unit wagered, as a fraction
func (s *Statistics) HouseEdge() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return -s.SumUnits / s.Wagered
}

// Add records one round
func (s *Statistics) Add(r RoundResult) {
	net := r.NetUnits
	s.Rounds++
	s.SumUnits += net
	s.SumUnits2 += net * net
	s.Values = append(s.Values, net)
	s.Wagered += r.Wagered

	switch {
	case net > 0:
		s.Wins++
	case net < 0:
		s.Losses++
	default:
		s.Pushes++
	}

	if r.FreeBet {
		s.FreeBetRounds++
		s.FreeBetUnits += net
	} else {
		s.PlainUnits += net
	}
	s.AllUnits += net

	if r.Dealer22 {
		s.Dealer22s++
	}
	if r.Blackjack {
		s.Blackjacks++
	}
	if r.Hands > 1 {
		s.SplitHands += r.Hands - 1
	}

	s.BiggestWin = max(s.BiggestWin, net)
	s.BiggestLoss = min(s.BiggestLoss, net)

	b := &s.Buckets[BucketIndex(r.TrueCount)]
	b.Rounds++
	b.SumUnits += net
	b.SumUnits2 += net * net
}

// Merge folds other into s. Workers keep private Statistics and merge at the end.
func (s *Statistics) Merge(other *Statistics) {
	s.Rounds += other.Rounds
	s.SumUnits += other.SumUnits
	s.SumUnits2 += other.SumUnits2
	s.Values = append(s.Values, other.Values...)
	s.Wagered += other.Wagered
	s.Wins += other.Wins
	s.Losses += other.Losses
	s.Pushes += other.Pushes
	s.FreeBetRounds += other.FreeBetRounds
	s.FreeBetUnits += other.FreeBetUnits
	s.PlainUnits += other.PlainUnits
	s.AllUnits += other.AllUnits
	s.Dealer22s += other.Dealer22s
	s.Blackjacks += other.Blackjacks
	s.SplitHands += other.SplitHands
	s.BiggestWin = max(s.BiggestWin, other.BiggestWin)
	s.BiggestLoss = min(s.BiggestLoss, other.BiggestLoss)
	for i := range s.Buckets {
		s.Buckets[i].Rounds += other.Buckets[i].Rounds
		s.Buckets[i].SumUnits += other.Buckets[i].SumUnits
		s.Buckets[i].SumUnits2 += other.Buckets[i].SumUnits2
	}
}

// Median returns the median result
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the interpolated value at p (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func (s *Statistics) sorted() []float64 {
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)
	return sorted
}

// BucketMean returns the mean result for rounds bet at the given true count
func (s *Statistics) BucketMean(trueCount int) float64 {
	if trueCount < MinBucket || trueCount > MaxBucket {
		return 0
	}
	b := s.Buckets[trueCount-MinBucket]
	if b.Rounds == 0 {
		return 0
	}
	return b.SumUnits / float64(b.Rounds)
}

// IsLedgerBalanced checks that the free-bet and plain ledgers add up
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(s.AllUnits-s.FreeBetUnits-s.PlainUnits) <= 1e-6
}

// Validate checks the internal consistency of the aggregate
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: all=%.6f, free=%.6f, plain=%.6f",
			s.AllUnits, s.FreeBetUnits, s.PlainUnits)
	}
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values length (%d) does not match rounds (%d)", len(s.Values), s.Rounds)
	}
	if s.Wins+s.Losses+s.Pushes != s.Rounds {
		return fmt.Errorf("outcomes (%d) do not match rounds (%d)", s.Wins+s.Losses+s.Pushes, s.Rounds)
	}
	bucketRounds := 0
	for _, b := range s.Buckets {
		bucketRounds += b.Rounds
	}
	if bucketRounds != s.Rounds {
		return fmt.Errorf("bucket rounds (%d) do not match rounds (%d)", bucketRounds, s.Rounds)
	}
	return nil
}
