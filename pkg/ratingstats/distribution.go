// Package ratingstats хранит снапшот распределения оценок отзывов в Redis.
// Снапшот пишет stats-worker (полный пересчет и дельты из Kafka),
// читает reviews-service для графика распределения оценок.
package ratingstats

import (
	"math"
	"sort"
)

// MinRating и MaxRating - шкала оценок, которую показывает график
const (
	MinRating = 1
	MaxRating = 5
)

type Bucket struct {
	Rating int   `json:"rating"`
	Count  int64 `json:"count"`
}

type Distribution struct {
	Buckets []Bucket `json:"buckets"`
	Total   int64    `json:"total"`
	Average float64  `json:"average"`
}

// NewDistribution строит распределение по количеству отзывов на каждую оценку.
// Оценки 1..5 присутствуют всегда, даже с нулем; отрицательные счетчики
// (дельта пришла раньше полного пересчета) считаются нулем.
func NewDistribution(counts map[int]int64) Distribution {
	merged := make(map[int]int64, MaxRating)
	for r := MinRating; r <= MaxRating; r++ {
		merged[r] = 0
	}
	for r, c := range counts {
		if c < 0 {
			c = 0
		}
		merged[r] = c
	}

	ratings := make([]int, 0, len(merged))
	for r := range merged {
		ratings = append(ratings, r)
	}
	sort.Ints(ratings)

	dist := Distribution{Buckets: make([]Bucket, 0, len(ratings))}
	var sum int64
	for _, r := range ratings {
		c := merged[r]
		dist.Buckets = append(dist.Buckets, Bucket{Rating: r, Count: c})
		dist.Total += c
		sum += int64(r) * c
	}

	if dist.Total > 0 {
		dist.Average = math.Round(float64(sum)/float64(dist.Total)*100) / 100
	}

	return dist
}
