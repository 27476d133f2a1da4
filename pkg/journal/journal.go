// Package journal keeps a persistent record of extraction jobs.
//
// Job records are JSON documents under /jobs/<id> in the LevelDB part of the
// storage. The manifest of a finished job is stored as a dag-json block in
// the FlatFS part, through a blockstore, and referenced from the job by CID.
// Identical extractions share one manifest block.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ipfs/boxo/blockstore"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	ds "github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	ipld "github.com/ipfs/go-ipld-format"
	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-multicodec"
	mh "github.com/multiformats/go-multihash"
	"go.uber.org/zap"

	"github.com/tragoedia0722/unrar/internal/storage"
	"github.com/tragoedia0722/unrar/pkg/engine"
	"github.com/tragoedia0722/unrar/pkg/manifest"
	"github.com/tragoedia0722/unrar/pkg/session"
)

var log = logging.Logger("unrar/journal")

var jobsKey = ds.NewKey("/jobs")

type Journal struct {
	mu         sync.Mutex
	storage    *storage.Storage
	blockStore blockstore.Blockstore
	builder    cid.Builder
	log        *zap.SugaredLogger
}

// Open opens the journal stored at path, creating it if needed.
func Open(path string) (*Journal, error) {
	s, err := storage.Open(path)
	if err != nil {
		return nil, err
	}

	return &Journal{
		storage:    s,
		blockStore: blockstore.NewBlockstore(s.Datastore()),
		builder: cid.V1Builder{
			Codec:    uint64(multicodec.DagJson),
			MhType:   mh.SHA2_256,
			MhLength: -1,
		},
		log: &log.SugaredLogger,
	}, nil
}

func jobKey(id string) ds.Key {
	return jobsKey.ChildString(id)
}

// Begin records a new running job and returns its id. Archive and Dest are
// taken from job; ID, State and Started are assigned.
func (j *Journal) Begin(ctx context.Context, job Job) (string, error) {
	job.ID = uuid.NewString()
	job.State = session.Running.String()
	job.Code = int(engine.Success)
	job.Started = time.Now().UTC()
	job.Finished = time.Time{}

	if err := j.put(ctx, &job); err != nil {
		return "", err
	}
	j.log.Debugw("job started", "id", job.ID, "archive", job.Archive)
	return job.ID, nil
}

// Finish records the outcome of a job. m may be nil, for example when the
// extraction failed.
func (j *Journal) Finish(ctx context.Context, id string, code engine.Code, state session.State, m *manifest.Manifest) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, err := j.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Done() {
		return ErrFinished
	}

	job.Code = int(code)
	job.State = state.String()
	job.Finished = time.Now().UTC()

	if m != nil {
		c, err := j.putManifest(ctx, m)
		if err != nil {
			return fmt.Errorf("store manifest: %w", err)
		}
		job.Manifest = c.String()
		job.Root = m.Root
		job.Size = m.Size
		job.Files = len(m.Files())
	}

	if err := j.put(ctx, job); err != nil {
		return err
	}
	j.log.Infow("job finished", "id", id, "state", job.State, "code", code)
	return nil
}

// Get returns the job with the given id.
func (j *Journal) Get(ctx context.Context, id string) (*Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	d, err := j.datastore()
	if err != nil {
		return nil, err
	}
	data, err := d.Get(ctx, jobKey(id))
	if errors.Is(err, ds.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// Find resolves a unique id prefix, so that short ids work on the command
// line. A full id is looked up directly.
func (j *Journal) Find(ctx context.Context, prefix string) (*Job, error) {
	if _, err := uuid.Parse(prefix); err == nil {
		return j.Get(ctx, prefix)
	}

	jobs, err := j.List(ctx)
	if err != nil {
		return nil, err
	}

	var found *Job
	for _, job := range jobs {
		if !strings.HasPrefix(job.ID, prefix) {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguous
		}
		found = job
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// Manifest loads the manifest recorded for a finished job.
func (j *Journal) Manifest(ctx context.Context, id string) (*manifest.Manifest, error) {
	job, err := j.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Manifest == "" {
		return nil, ErrNoManifest
	}

	c, err := cid.Parse(job.Manifest)
	if err != nil {
		return nil, err
	}
	blk, err := j.blockStore.Get(ctx, c)
	if ipld.IsNotFound(err) {
		return nil, ErrNoManifest
	}
	if err != nil {
		return nil, err
	}

	var m manifest.Manifest
	if err := json.Unmarshal(blk.RawData(), &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", c, err)
	}
	return &m, nil
}

// List returns every job, oldest first.
func (j *Journal) List(ctx context.Context) ([]*Job, error) {
	d, err := j.datastore()
	if err != nil {
		return nil, err
	}
	res, err := d.Query(ctx, query.Query{Prefix: jobsKey.String()})
	if err != nil {
		return nil, err
	}
	entries, err := res.Rest()
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(entries))
	for _, e := range entries {
		var job Job
		if err := json.Unmarshal(e.Value, &job); err != nil {
			j.log.Warnw("skipping unreadable job", "key", e.Key, "error", err)
			continue
		}
		jobs = append(jobs, &job)
	}

	sort.Slice(jobs, func(a, b int) bool {
		if jobs[a].Started.Equal(jobs[b].Started) {
			return jobs[a].ID < jobs[b].ID
		}
		return jobs[a].Started.Before(jobs[b].Started)
	})
	return jobs, nil
}

// Delete removes a job. Its manifest block goes too, unless another job
// recorded the same manifest.
func (j *Journal) Delete(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, err := j.Get(ctx, id)
	if err != nil {
		return err
	}
	d, err := j.datastore()
	if err != nil {
		return err
	}
	if err := d.Delete(ctx, jobKey(id)); err != nil {
		return err
	}
	if job.Manifest == "" {
		return nil
	}

	jobs, err := j.List(ctx)
	if err != nil {
		return err
	}
	for _, other := range jobs {
		if other.Manifest == job.Manifest {
			return nil
		}
	}

	c, err := cid.Parse(job.Manifest)
	if err != nil {
		return err
	}
	return j.blockStore.DeleteBlock(ctx, c)
}

// Usage returns the disk space used by the journal.
func (j *Journal) Usage(ctx context.Context) (uint64, error) {
	return j.storage.Usage(ctx)
}

// Path returns the journal directory.
func (j *Journal) Path() string {
	return j.storage.Path()
}

func (j *Journal) Close() error {
	if j.storage == nil {
		return nil
	}
	return j.storage.Close()
}

func (j *Journal) datastore() (storage.Datastore, error) {
	d := j.storage.Datastore()
	if d == nil {
		return nil, storage.ErrClosed
	}
	return d, nil
}

func (j *Journal) put(ctx context.Context, job *Job) error {
	d, err := j.datastore()
	if err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.Put(ctx, jobKey(job.ID), data)
}

func (j *Journal) putManifest(ctx context.Context, m *manifest.Manifest) (cid.Cid, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return cid.Undef, err
	}

	sum, err := j.builder.Sum(data)
	if err != nil {
		return cid.Undef, err
	}
	blk, err := blocks.NewBlockWithCid(data, sum)
	if err != nil {
		return cid.Undef, err
	}
	if err := j.blockStore.Put(ctx, blk); err != nil {
		return cid.Undef, err
	}
	return sum, nil
}
