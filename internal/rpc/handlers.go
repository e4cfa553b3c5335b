package rpc

import (
	"context"
	"strconv"

	"fetchd/internal/jobs"
	"fetchd/internal/logging"
	"fetchd/internal/options"
	"fetchd/internal/services"
	"fetchd/internal/variant"
)

const resultOK = "OK"

func logAdded(ctx context.Context, env *Env, ids []jobs.GID, source string) {
	for _, id := range ids {
		logger := logging.WithContext(services.WithGID(ctx, uint64(id)), logging.NewComponentLogger(env.Logger, "rpc"))
		logger.Info("task queued",
			logging.String(logging.FieldEventType, "task_queued"),
			logging.String("source", source),
		)
	}
}

// addURI: uris, [options], [position] -> gid
func addURI(ctx context.Context, req *Request, env *Env) (variant.Value, error) {
	first, ok := param(req, 0)
	if !ok {
		return variant.Null(), invalid(req.Method, "missing URI list")
	}
	uris, err := textList(req, first, "uris")
	if err != nil {
		return variant.Null(), err
	}
	if len(uris) == 0 {
		return variant.Null(), invalid(req.Method, "URI list is empty")
	}
	opts, err := taskOptions(req, env, 1)
	if err != nil {
		return variant.Null(), err
	}
	pos, err := position(req, 2)
	if err != nil {
		return variant.Null(), err
	}
	files, err := env.Files.FromURIs(uris, opts)
	if err != nil {
		return variant.Null(), err
	}
	ids, err := enqueue(env, pos, jobs.NewTask(files, opts))
	if err != nil {
		return variant.Null(), err
	}
	logAdded(ctx, env, ids, "uri")
	return variant.Text(ids[0].String()), nil
}

// addTorrent: torrent(base64), [uris], [options], [position] -> gid
func addTorrent(ctx context.Context, req *Request, env *Env) (variant.Value, error) {
	encoded, err := requireText(req, 0, "torrent")
	if err != nil {
		return variant.Null(), err
	}
	data, err := decodeBase64(req, encoded, "torrent")
	if err != nil {
		return variant.Null(), err
	}
	var seeds []string
	if v, ok := param(req, 1); ok {
		if seeds, err = textList(req, v, "uris"); err != nil {
			return variant.Null(), err
		}
	}
	opts, err := taskOptions(req, env, 2)
	if err != nil {
		return variant.Null(), err
	}
	pos, err := position(req, 3)
	if err != nil {
		return variant.Null(), err
	}
	files, err := env.Files.FromTorrent(data, seeds, opts)
	if err != nil {
		return variant.Null(), err
	}
	ids, err := enqueue(env, pos, jobs.NewTask(files, opts))
	if err != nil {
		return variant.Null(), err
	}
	logAdded(ctx, env, ids, "torrent")
	return variant.Text(ids[0].String()), nil
}

// addMetalink: metalink(base64), [options], [position] -> [gid...]
func addMetalink(ctx context.Context, req *Request, env *Env) (variant.Value, error) {
	encoded, err := requireText(req, 0, "metalink")
	if err != nil {
		return variant.Null(), err
	}
	data, err := decodeBase64(req, encoded, "metalink")
	if err != nil {
		return variant.Null(), err
	}
	opts, err := taskOptions(req, env, 1)
	if err != nil {
		return variant.Null(), err
	}
	pos, err := position(req, 2)
	if err != nil {
		return variant.Null(), err
	}
	sets, err := env.Files.FromMetalink(data, opts)
	if err != nil {
		return variant.Null(), err
	}
	tasks := make([]*jobs.Task, 0, len(sets))
	for _, set := range sets {
		tasks = append(tasks, jobs.NewTask(set, opts.Clone()))
	}
	ids, err := enqueue(env, pos, tasks...)
	if err != nil {
		return variant.Null(), err
	}
	logAdded(ctx, env, ids, "metalink")
	return gidValues(ids), nil
}

// removeTask: gid -> gid
func removeTask(ctx context.Context, req *Request, env *Env) (variant.Value, error) {
	id, err := requireGID(req, 0)
	if err != nil {
		return variant.Null(), err
	}
	if _, err := env.Registry.Remove(id); err != nil {
		return variant.Null(), err
	}
	logging.WithContext(services.WithGID(ctx, uint64(id)), logging.NewComponentLogger(env.Logger, "rpc")).
		Info("task removed", logging.String(logging.FieldEventType, "task_removed"))
	return variant.Text(id.String()), nil
}

// changeOption: gid, options -> "OK"
func changeOption(ctx context.Context, req *Request, env *Env) (variant.Value, error) {
	id, err := requireGID(req, 0)
	if err != nil {
		return variant.Null(), err
	}
	if _, err := env.Registry.Find(id); err != nil {
		return variant.Null(), err
	}
	v, ok := param(req, 1)
	if !ok {
		return variant.Null(), invalid(req.Method, "missing options")
	}
	changes, err := validateOptions(req, env, options.Task, v)
	if err != nil {
		return variant.Null(), err
	}
	if err := env.Registry.ChangeTaskOptions(id, changes); err != nil {
		return variant.Null(), err
	}
	return variant.Text(resultOK), nil
}

// changeGlobalOption: options -> "OK"
func changeGlobalOption(_ context.Context, req *Request, env *Env) (variant.Value, error) {
	v, ok := param(req, 0)
	if !ok {
		return variant.Null(), invalid(req.Method, "missing options")
	}
	changes, err := validateOptions(req, env, options.Global, v)
	if err != nil {
		return variant.Null(), err
	}
	env.Registry.ChangeGlobalOptions(changes)
	return variant.Text(resultOK), nil
}

func optionsValue(values options.Values) variant.Value {
	out := variant.Map()
	for _, key := range values.Keys() {
		out.MustSet(key, variant.Text(values.Get(key)))
	}
	return out
}

// getOption: gid -> {name: value}
func getOption(_ context.Context, req *Request, env *Env) (variant.Value, error) {
	id, err := requireGID(req, 0)
	if err != nil {
		return variant.Null(), err
	}
	t, err := env.Registry.Find(id)
	if err != nil {
		return variant.Null(), err
	}
	return optionsValue(t.Options), nil
}

func getGlobalOption(_ context.Context, _ *Request, env *Env) (variant.Value, error) {
	return optionsValue(env.Registry.GlobalOptions()), nil
}

func getGlobalStat(_ context.Context, _ *Request, env *Env) (variant.Value, error) {
	stats := env.Registry.Stats()
	out := variant.Map()
	out.MustSet("numActive", variant.Text(strconv.Itoa(stats.NumActive)))
	out.MustSet("numWaiting", variant.Text(strconv.Itoa(stats.NumWaiting)))
	out.MustSet("numStopped", variant.Text(strconv.Itoa(stats.NumStopped)))
	out.MustSet("downloadSpeed", variant.Text(strconv.FormatInt(stats.DownloadSpeed, 10)))
	out.MustSet("uploadSpeed", variant.Text(strconv.FormatInt(stats.UploadSpeed, 10)))
	out.MustSet("downloadLimit", variant.Text(strconv.FormatInt(stats.DownloadCap, 10)))
	out.MustSet("uploadLimit", variant.Text(strconv.FormatInt(stats.UploadCap, 10)))
	return out, nil
}

// tellStatus: gid -> status struct
func tellStatus(_ context.Context, req *Request, env *Env) (variant.Value, error) {
	id, err := requireGID(req, 0)
	if err != nil {
		return variant.Null(), err
	}
	if t, err := env.Registry.FindActive(id); err == nil {
		return taskStatus(t, statusActive), nil
	}
	if t, err := env.Registry.FindPending(id); err == nil {
		return taskStatus(t, statusWaiting), nil
	}
	rec, err := env.Registry.FindFinished(id)
	if err != nil {
		return variant.Null(), err
	}
	return finishedStatus(rec), nil
}

func tellActive(_ context.Context, _ *Request, env *Env) (variant.Value, error) {
	out := variant.List()
	for _, t := range env.Registry.ListActive() {
		_ = out.Append(taskStatus(t, statusActive))
	}
	return out, nil
}

// tellWaiting: offset, num -> [status...]
func tellWaiting(_ context.Context, req *Request, env *Env) (variant.Value, error) {
	offset, num, err := window(req)
	if err != nil {
		return variant.Null(), err
	}
	pending := env.Registry.ListPending()
	out := variant.List()
	for _, i := range windowIndexes(len(pending), offset, num) {
		_ = out.Append(taskStatus(pending[i], statusWaiting))
	}
	return out, nil
}

// tellStopped: offset, num -> [status...]
func tellStopped(_ context.Context, req *Request, env *Env) (variant.Value, error) {
	offset, num, err := window(req)
	if err != nil {
		return variant.Null(), err
	}
	finished := env.Registry.ListFinished()
	out := variant.List()
	for _, i := range windowIndexes(len(finished), offset, num) {
		_ = out.Append(finishedStatus(finished[i]))
	}
	return out, nil
}

func window(req *Request) (int64, int64, error) {
	offset, err := requireInt(req, 0, "offset")
	if err != nil {
		return 0, 0, err
	}
	num, err := requireInt(req, 1, "num")
	if err != nil {
		return 0, 0, err
	}
	return offset, num, nil
}

// windowIndexes selects up to num indexes starting at offset. A negative
// offset counts back from the tail and walks toward the head. Overruns are
// clamped rather than reported.
func windowIndexes(length int, offset, num int64) []int {
	if num <= 0 || length == 0 {
		return nil
	}
	var out []int
	if offset >= 0 {
		for i := offset; i < int64(length) && int64(len(out)) < num; i++ {
			out = append(out, int(i))
		}
		return out
	}
	for i := int64(length) + offset; i >= 0 && int64(len(out)) < num; i-- {
		if i < int64(length) {
			out = append(out, int(i))
		}
	}
	return out
}

// changePosition: gid, offset, origin -> new index
func changePosition(_ context.Context, req *Request, env *Env) (variant.Value, error) {
	id, err := requireGID(req, 0)
	if err != nil {
		return variant.Null(), err
	}
	offset, err := requireInt(req, 1, "offset")
	if err != nil {
		return variant.Null(), err
	}
	rawOrigin, err := requireText(req, 2, "origin")
	if err != nil {
		return variant.Null(), err
	}
	origin, err := jobs.ParseOrigin(rawOrigin)
	if err != nil {
		return variant.Null(), err
	}
	idx, err := env.Registry.ChangePosition(id, int(offset), origin)
	if err != nil {
		return variant.Null(), err
	}
	return variant.Int(int64(idx)), nil
}

func getVersion(_ context.Context, _ *Request, env *Env) (variant.Value, error) {
	var features []string
	if env.Features != nil {
		features = env.Features.EnabledFeatures()
	}
	out := variant.Map()
	out.MustSet("version", variant.Text(env.Version))
	out.MustSet("enabledFeatures", variant.TextList(features...))
	return out, nil
}
