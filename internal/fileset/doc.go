// Package fileset describes the files a download task will produce and the
// URIs they are fetched from.
//
// A Set is built from one of three sources: a plain URI list, BitTorrent
// metainfo, or a Metalink document. The Resolver type turns raw caller input
// into Sets; the job registry stores them opaquely and only status reporting
// reads them back.
package fileset
