package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

// SAS token status values
const (
	SASStatusValid    = "valid"
	SASStatusExpiring = "expiring"
	SASStatusExpired  = "expired"
	SASStatusUnknown  = "unknown"
)

// SASInfo describes the validity window of a shared access signature.
type SASInfo struct {
	Start       time.Time
	Expiry      time.Time
	Permissions string
	Resource    string
	Signed      bool
}

// InspectSASToken parses the signed fields of a SAS query string.
// The token itself is never modified; this is used for diagnostics only.
func InspectSASToken(token string) (*SASInfo, error) {
	token = strings.TrimPrefix(token, "?")
	if token == "" {
		return nil, fmt.Errorf("sas token is empty")
	}

	parts, err := sas.ParseURL("https://account.blob.core.windows.net/container?" + token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sas token: %w", err)
	}

	return &SASInfo{
		Start:       parts.SAS.StartTime(),
		Expiry:      parts.SAS.ExpiryTime(),
		Permissions: parts.SAS.Permissions(),
		Resource:    parts.SAS.Resource(),
		Signed:      parts.SAS.Signature() != "",
	}, nil
}

// Status classifies the token at now. A token that expires within warnWithin
// is reported as expiring.
func (i *SASInfo) Status(now time.Time, warnWithin time.Duration) string {
	if i == nil || i.Expiry.IsZero() {
		return SASStatusUnknown
	}
	if !now.Before(i.Expiry) {
		return SASStatusExpired
	}
	if i.Expiry.Sub(now) <= warnWithin {
		return SASStatusExpiring
	}
	return SASStatusValid
}

// TimeLeft returns the remaining validity, or zero when expired or unknown.
func (i *SASInfo) TimeLeft(now time.Time) time.Duration {
	if i == nil || i.Expiry.IsZero() || !now.Before(i.Expiry) {
		return 0
	}
	return i.Expiry.Sub(now)
}
