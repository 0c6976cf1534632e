package services

import (
	"context"
	"sync"
	"time"
)

// Carousel rotates the home page hero through the catalog on a fixed tick
type Carousel struct {
	mu       sync.Mutex
	size     int
	index    int
	interval time.Duration
}

// NewCarousel creates a carousel that advances every interval
func NewCarousel(interval time.Duration) *Carousel {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Carousel{interval: interval}
}

// SetSize updates the number of slides. A change of size restarts at slide 0.
func (c *Carousel) SetSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n != c.size {
		c.size = n
		c.index = 0
	}
}

func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Next moves forward one slide, wrapping. It does nothing with fewer than two slides.
func (c *Carousel) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.size > 1 {
		c.index = (c.index + 1) % c.size
	}
	return c.index
}

// Prev moves back one slide, wrapping
func (c *Carousel) Prev() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.size > 1 {
		c.index = (c.index - 1 + c.size) % c.size
	}
	return c.index
}

// Run advances on every tick until ctx is cancelled
func (c *Carousel) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Next()
		}
	}
}
