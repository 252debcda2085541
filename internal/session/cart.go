package session

import (
	"fmt"
	"time"

	"github.com/ayusman/kiosk/internal/catalog"
	"github.com/ayusman/kiosk/internal/detector"
)

// AddDetections merges one frame's detections into the cart and returns the
// feedback for the first accepted one, or "".
//
// A single cooldown clock gates every product: once a scan is accepted, all
// detections within ScanCooldown are ignored, whatever the product. Detections
// are taken in the order given; class ids missing from the catalog are skipped.
func (s *Session) AddDetections(dets []detector.Detection, cat *catalog.Catalog, now time.Time) string {
	feedback := ""

	for _, d := range dets {
		item, ok := cat.Lookup(d.ClassID)
		if !ok {
			continue
		}
		if s.scanned && now.Sub(s.lastScanAt) <= s.settings.ScanCooldown {
			continue
		}

		s.addItem(item)
		s.lastScanAt = now
		s.scanned = true

		if feedback == "" {
			feedback = fmt.Sprintf("Added %s!", item.Name)
		}
		if s.OnItemAdded != nil {
			s.OnItemAdded(item)
		}
	}

	return feedback
}

func (s *Session) addItem(item catalog.Item) {
	defer s.recomputeTotal()

	for i := range s.cart {
		if s.cart[i].Name == item.Name {
			s.cart[i].Quantity++
			return
		}
	}
	s.cart = append(s.cart, CartLine{Name: item.Name, Price: item.Price, Quantity: 1})
}
