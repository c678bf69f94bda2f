// Package sharepoint moves files to and from a SharePoint site over its
// REST API, authenticating with ACS client credentials.
package sharepoint

import "context"

// Transfer fetches and stores raw file bytes at a remote location. The
// report pipeline depends on this interface, not on the SharePoint client.
type Transfer interface {
	// FetchBytes downloads the file at the server-relative path.
	FetchBytes(ctx context.Context, path string) ([]byte, error)
	// StoreBytes uploads data as filename into the library subfolder,
	// overwriting any existing file.
	StoreBytes(ctx context.Context, library, folder, filename string, data []byte) error
}
