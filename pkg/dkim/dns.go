package dkim

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RecordsInput collects what the DNS record templates need for one
// accepted domain.
type RecordsInput struct {
	Domain     string
	Selector   string
	DKIMDomain string
	ExternalIP string
	PublicKey  string
}

// Records renders the MX, SPF, DKIM and DMARC record lines for one
// domain, in that order.
func Records(in RecordsInput) []string {
	return []string{
		fmt.Sprintf("%s. MX 10 %s", in.Domain, in.ExternalIP),
		fmt.Sprintf("%s. TXT \"v=spf1 a mx ip4:%s -all\"", in.Domain, in.ExternalIP),
		fmt.Sprintf("%s._domainkey.%s. TXT \"v=DKIM1; k=rsa; s=email; p=%s\"",
			in.Selector, in.DKIMDomain, in.PublicKey),
		fmt.Sprintf("_dmarc.%s. TXT \"v=DMARC1; p=none\"", in.Domain),
	}
}

// ExternalIP asks a public resolver for the address this host is seen
// under, which is what the MX and SPF records must point at.
func ExternalIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.ipify.org", nil)
	if err != nil {
		return "", err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to resolve external IP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to resolve external IP: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}
