package rpc

import (
	"strconv"

	"fetchd/internal/jobs"
	"fetchd/internal/variant"
)

const (
	statusActive  = "active"
	statusWaiting = "waiting"
)

func itoa(n int64) variant.Value {
	return variant.Text(strconv.FormatInt(n, 10))
}

func gidValues(ids []jobs.GID) variant.Value {
	out := variant.List()
	for _, id := range ids {
		_ = out.Append(variant.Text(id.String()))
	}
	return out
}

func addLinks(out *variant.Value, followedBy []jobs.GID, belongsTo jobs.GID) {
	if len(followedBy) > 0 {
		out.MustSet("followedBy", gidValues(followedBy))
	}
	if belongsTo != 0 {
		out.MustSet("belongsTo", variant.Text(belongsTo.String()))
	}
}

func taskStatus(t *jobs.Task, status string) variant.Value {
	out := variant.Map()
	out.MustSet("gid", variant.Text(t.ID.String()))
	out.MustSet("status", variant.Text(status))
	out.MustSet("totalLength", itoa(t.Files.TotalLength()))
	out.MustSet("completedLength", itoa(t.CompletedLength))
	out.MustSet("uploadLength", itoa(t.UploadLength))
	out.MustSet("downloadSpeed", itoa(t.DownloadSpeed))
	out.MustSet("uploadSpeed", itoa(t.UploadSpeed))
	out.MustSet("dir", variant.Text(t.Dir()))

	files := variant.List()
	for i, entry := range t.Files.Entries {
		file := variant.Map()
		file.MustSet("index", variant.Text(strconv.Itoa(i+1)))
		file.MustSet("path", variant.Text(entry.Path))
		file.MustSet("length", itoa(entry.Length))
		file.MustSet("uris", variant.TextList(entry.URIs...))
		_ = files.Append(file)
	}
	out.MustSet("files", files)
	addLinks(&out, t.FollowedBy, t.BelongsTo)
	return out
}

func finishedStatus(rec jobs.FinishedRecord) variant.Value {
	out := variant.Map()
	out.MustSet("gid", variant.Text(rec.ID.String()))
	out.MustSet("status", variant.Text(string(rec.Result)))
	out.MustSet("errorCode", variant.Text(strconv.Itoa(rec.ErrorCode)))
	out.MustSet("totalLength", itoa(rec.TotalLength))
	out.MustSet("completedLength", itoa(rec.CompletedLength))
	out.MustSet("uploadLength", itoa(rec.UploadLength))
	out.MustSet("downloadSpeed", itoa(0))
	out.MustSet("uploadSpeed", itoa(0))
	out.MustSet("dir", variant.Text(rec.Dir))

	files := variant.List()
	for i, path := range rec.Files {
		file := variant.Map()
		file.MustSet("index", variant.Text(strconv.Itoa(i+1)))
		file.MustSet("path", variant.Text(path))
		_ = files.Append(file)
	}
	out.MustSet("files", files)
	addLinks(&out, rec.FollowedBy, rec.BelongsTo)
	return out
}
