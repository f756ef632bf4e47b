package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
)

// The identity client's only callback signal during a device-code flow
// is a human-readable sentence, e.g.
//
//	"To sign in, use a web browser to open the page
//	 https://microsoft.com/devicelogin and enter the code ABC123XYZ
//	 to authenticate."
//
// The structured code and URL are recovered by pattern matching. A
// message that doesn't match is a distinct failure (ErrPromptParse),
// never an empty-fielded flow.
var (
	promptURLPattern  = regexp.MustCompile(`https?://[^\s"'<>]+`)
	promptCodePattern = regexp.MustCompile(`(?i)\bcode\s+([A-Za-z0-9][A-Za-z0-9-]{3,})`)
)

// parseDevicePrompt extracts the user code and verification URL from a
// device-code prompt sentence.
func parseDevicePrompt(message string) (userCode, verificationURL string, err error) {
	verificationURL = strings.TrimRight(promptURLPattern.FindString(message), ".,;:!")
	if m := promptCodePattern.FindStringSubmatch(message); len(m) == 2 {
		userCode = strings.TrimRight(m[1], ".,;:!")
	}
	if userCode == "" || verificationURL == "" {
		return "", "", fmt.Errorf("%w: %q", domain.ErrPromptParse, message)
	}
	return userCode, verificationURL, nil
}
