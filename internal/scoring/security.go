package scoring

import (
	"fmt"
	"strings"

	"pageaudit/internal/findings"
)

// Security is bonus-based: it starts at 0 and earns points per protection.
func Security(r findings.Results) ScoreBreakdown {
	bl := bonusBased(CategorySecurity)
	s := r.Security
	if !s.Available {
		return bl.unavailable("Security")
	}

	if s.HTTPS {
		bl.add(40, "HTTPS enabled", "Traffic between visitors and the site is encrypted.", "site.https")
	} else {
		bl.tip("Serve the site over HTTPS; free certificates are available from Let's Encrypt.")
	}
	if s.HSTS {
		bl.add(10, "HSTS enabled", "Browsers refuse to downgrade to plain HTTP.", "site.hsts")
	} else if s.HTTPS {
		bl.tip("Send Strict-Transport-Security with max-age of at least 31536000.")
	}
	if s.HTTPS && len(s.MixedContent) == 0 {
		bl.add(10, "No mixed content", "Every subresource is loaded over HTTPS.", "site.mixedContentCount")
	}
	bl.addEach(len(s.PresentHeaders), 4, 20,
		fmt.Sprintf("%d security headers present", len(s.PresentHeaders)),
		"Security headers harden the browser against clickjacking, sniffing and injection.",
		"site.securityHeaders")
	if len(s.MissingHeaders) > 0 {
		bl.tip("Add the missing headers: " + strings.Join(s.MissingHeaders, ", ") + ".")
	}
	if s.HTTPSRedirect {
		bl.add(10, "HTTP redirects to HTTPS", "Visitors typing the bare domain end up on the secure site.", "site.httpsRedirect")
	}
	if s.SecureCookies {
		bl.add(10, "Cookies use Secure and HttpOnly", "Session cookies cannot leak over HTTP or to scripts.", "site.insecureCookies")
	}
	if s.ServerDisclosure != "" {
		bl.tip("Hide server version details (" + s.ServerDisclosure + ").")
	}
	return bl.finish()
}
