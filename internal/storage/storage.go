// Package storage composes retrieval URLs for blobs in an Azure Blob Storage
// container and inspects the shared access signature used to read them.
package storage

import "fmt"

// BaseURL returns the container URL for the given storage account.
func BaseURL(accountName, containerName string) string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s", accountName, containerName)
}

// BuildBlobURL returns baseURL/blobName?token. The token is an opaque,
// already encoded query string and is appended verbatim; nothing is escaped.
func BuildBlobURL(baseURL, blobName, token string) string {
	return baseURL + "/" + blobName + "?" + token
}
