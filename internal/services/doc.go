// Package services implements the gallery's remote collaborators on Cloudinary.
//
// # Interfaces
//
// The repositories package depends only on three small interfaces:
//   - [Lister] : remote listing of images or videos, optionally by tag
//   - [Uploader] : sending a local file and returning its delivery URLs
//   - [Downloader] : fetching a delivery URL to a local file
//
// # Listing
//
// [ProxyLister] calls the gallery's own listing proxy (see the server package) through
// the raw [APIService] client. [AdminLister] calls the Admin API directly and needs an
// API key and secret. Either can be wrapped in a [BreakerLister] so repeated failures
// open a circuit instead of stalling every sync.
//
// # Uploading
//
// [CloudinaryUploader] performs unsigned multipart uploads with an upload preset. The
// custom context carries title, year, description and uploader, and the upload is tagged
// with year_{year}, the media kind and the preset name.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrMissingConfig] : cloud name, preset or credentials absent
//   - [shared.ErrUploadFailed] : the host rejected an upload
//   - [shared.ErrDownloadFailed] : a download could not be completed
//   - [shared.ErrAPIRequest] : a listing request failed
//   - [shared.ErrServiceUnavailable] : the circuit breaker is open
//   - [shared.ErrRemoteDeleteUnsupported] : returned by [DeleteRemote]
package services
