package shared

import (
	"strings"

	"google.golang.org/api/option"
)

// GoogleClientOptions returns the client options for Google Cloud and Firebase clients.
//
// With no credentials file the clients fall back to Application Default Credentials
// (GOOGLE_APPLICATION_CREDENTIALS, gcloud, or the metadata server).
func GoogleClientOptions(credentialsFile string) []option.ClientOption {
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(ExpandPath(credentialsFile))}
}
