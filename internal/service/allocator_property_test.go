package service

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// The code pool must behave as a FIFO queue under any interleaving of
// appends, previews and consumes.
func TestCodePoolIsFIFO(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		svc, _ := newCatalogService(t)
		ctx := context.Background()

		game := seedGame(t, svc, "Prop Game", map[string]string{"PS4": "PROP-PS4"})
		acc := seedAccount(t, svc, game.ID, "prop@example.com", "PRIMARY", "PS4", nil)

		var reference []string
		next := 0

		ops := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 40).Draw(rt, "ops")
		for _, op := range ops {
			switch op {
			case 0: // append a batch
				n := rapid.IntRange(1, 3).Draw(rt, "batch")
				batch := make([]string, 0, n)
				for i := 0; i < n; i++ {
					batch = append(batch, fmt.Sprintf("CODE-%04d", next))
					next++
				}
				if _, err := svc.AppendCodes(ctx, acc.ID, batch); err != nil {
					rt.Fatalf("append: %v", err)
				}
				reference = append(reference, batch...)

			case 1: // preview head
				head, err := svc.PreviewNext(ctx, acc.ID)
				if err != nil {
					rt.Fatalf("preview: %v", err)
				}
				if len(reference) == 0 {
					if head != "" {
						rt.Fatalf("preview on empty pool returned %q", head)
					}
				} else if head != reference[0] {
					rt.Fatalf("preview returned %q, want %q", head, reference[0])
				}

			case 2: // consume head
				code, err := svc.ConsumeNext(ctx, acc.ID)
				if err != nil {
					rt.Fatalf("consume: %v", err)
				}
				if len(reference) == 0 {
					if code != "" {
						rt.Fatalf("consume on empty pool returned %q", code)
					}
				} else {
					if code != reference[0] {
						rt.Fatalf("consume returned %q, want %q", code, reference[0])
					}
					reference = reference[1:]
				}
			}
		}
	})
}
