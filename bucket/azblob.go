package bucket

import (
	"context"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/messif/metrickernel/mcmn"
)

// AzureStore backs a Store with an Azure Blob Storage container.
type AzureStore struct {
	client        *azblob.Client
	containerName string
}

func OpenAzure(serviceURL string, cred azcore.TokenCredential, containerName string) (*AzureStore, error) {
	client, err := azblob.NewClient(serviceURL, cred, nil)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: new azure client")
	}
	return &AzureStore{client: client, containerName: containerName}, nil
}

func (a *AzureStore) Get(ctx context.Context, locator string) ([]byte, error) {
	resp, err := a.client.DownloadStream(ctx, a.containerName, locator, nil)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: azure download")
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: azure read body")
	}
	return data, nil
}

func (a *AzureStore) Put(ctx context.Context, locator string, data []byte) error {
	_, err := a.client.UploadBuffer(ctx, a.containerName, locator, data, nil)
	return mcmn.Wrap(err, "bucket: azure upload")
}

func (a *AzureStore) Delete(ctx context.Context, locator string) error {
	_, err := a.client.DeleteBlob(ctx, a.containerName, locator, nil)
	return mcmn.Wrap(err, "bucket: azure delete")
}

func (a *AzureStore) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	pager := a.client.NewListBlobsFlatPager(a.containerName, &container.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return out, mcmn.Wrap(err, "bucket: azure list")
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil && strings.HasPrefix(*item.Name, prefix) {
				out = append(out, *item.Name)
			}
		}
	}
	return out, nil
}

func (a *AzureStore) Close() error { return nil }
