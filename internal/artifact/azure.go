package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

// AzureBlob stores documents in one Azure Storage container and signs
// read-only SAS links with the account key from the connection string.
type AzureBlob struct {
	client    *azblob.Client
	container string
}

func NewAzureBlob(ctx context.Context, connectionString, container string) (*AzureBlob, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	if _, err := client.CreateContainer(ctx, container, nil); err != nil &&
		!bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("failed to create container %q: %w", container, err)
	}

	return &AzureBlob{client: client, container: container}, nil
}

func (a *AzureBlob) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	_, err := a.client.UploadBuffer(ctx, a.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

func (a *AzureBlob) SignedURL(ctx context.Context, name string, expiresAt time.Time) (string, error) {
	blobClient := a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(name)
	url, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, expiresAt, nil)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", name, err)
	}
	return url, nil
}
