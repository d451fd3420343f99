// Package models defines the domain entities of the family gallery.
//
// The package contains three groups of types:
//
// 1. Local cache entities, persisted by the repositories package:
//   - [MediaRecord] : one photo or video as the gallery shows it
//   - [MediaPatch] : a partial set of edits merged into a [MediaRecord]
//
// 2. Remote Data Transfer Objects, decoded from the media host:
//   - [RemoteResource] : one entry of a listing response
//   - [UploadResult] : the outcome of a successful upload
//
// 3. Operation inputs and outputs:
//   - [UploadParams] : what a caller supplies to create a record
//   - [SyncResult] : what a reconciliation pass changed
package models
