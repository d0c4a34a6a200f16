package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.uber.org/zap"
)

// ContainerProbe checks that the configured container is reachable with the
// configured SAS token. It is used by the readiness endpoint.
type ContainerProbe struct {
	client        *azblob.Client
	containerName string
	logger        *zap.Logger
}

// NewContainerProbe creates a probe against serviceURL (for example
// https://account.blob.core.windows.net) authenticated only by the SAS token.
func NewContainerProbe(serviceURL, containerName, token string, logger *zap.Logger) (*ContainerProbe, error) {
	endpoint, err := appendSASToken(serviceURL, token)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithNoCredential(endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	logger.Info("Azure Blob container probe initialized",
		zap.String("container", containerName),
	)

	return &ContainerProbe{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// Check lists at most one blob of the container.
func (p *ContainerProbe) Check(ctx context.Context) error {
	maxResults := int32(1)
	pager := p.client.NewListBlobsFlatPager(p.containerName, &azblob.ListBlobsFlatOptions{
		MaxResults: &maxResults,
	})

	if _, err := pager.NextPage(ctx); err != nil {
		p.logger.Warn("Blob container probe failed",
			zap.String("container", p.containerName),
			zap.Error(err),
		)
		return fmt.Errorf("failed to list container %s: %w", p.containerName, err)
	}

	return nil
}

func appendSASToken(endpoint, token string) (string, error) {
	token = strings.TrimPrefix(token, "?")
	if token == "" {
		return "", fmt.Errorf("sas token required for container probe")
	}
	endpoint = strings.TrimSuffix(endpoint, "/") + "/"
	return endpoint + "?" + token, nil
}
