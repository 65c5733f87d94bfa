package scoring

import (
	"fmt"
	"strings"

	"pageaudit/internal/findings"
)

// Advertising rates measurement and marketing tooling.
func Advertising(r findings.Results) ScoreBreakdown {
	bl := bonusBased(CategoryAdvertising)
	t := r.Technology
	if !t.Available {
		return bl.unavailable("Advertising")
	}
	if len(t.Analytics) > 0 {
		bl.add(40, "Analytics installed: "+strings.Join(t.Analytics, ", "),
			"You can measure visitors and conversions.", "site.analytics")
	} else {
		bl.tip("Install an analytics tool to measure traffic and conversions.")
	}
	if t.TagManager {
		bl.add(20, "Tag manager installed", "Marketing tags can be managed without deploys.", "site.tagManager")
	}
	bl.addEach(len(t.AdPlatforms), 20, 40,
		fmt.Sprintf("%d ad platforms", len(t.AdPlatforms)),
		"Conversion and retargeting pixels let you run and measure campaigns.", "site.adPlatforms")
	return bl.finish()
}

// Ecommerce rates store features. The second value is false when the page is
// not a store, in which case the category does not apply.
func Ecommerce(r findings.Results) (ScoreBreakdown, bool) {
	bl := bonusBased(CategoryEcommerce)
	t := r.Technology
	if !t.Available {
		return bl.unavailable("Ecommerce"), false
	}
	if !t.IsStore() {
		bl.b.Available = false
		return bl.finish(), false
	}
	if t.Ecommerce != "" {
		bl.add(50, "Store platform: "+t.Ecommerce, "A recognised store platform handles catalog and checkout.", "site.ecommerce")
	}
	if t.HasCart {
		bl.add(20, "Cart or checkout found", "Visitors can buy directly from the page.", "site.ecommerce")
	}
	if t.HasProductSchema {
		bl.add(20, "Product structured data", "Products can show price and availability in search.", "")
	} else {
		bl.tip("Add schema.org Product markup with price and availability.")
	}
	if len(t.PaymentProviders) > 0 {
		bl.add(10, "Payment providers: "+strings.Join(t.PaymentProviders, ", "),
			"Familiar payment options increase conversion.", "")
	}
	return bl.finish(), true
}
