package smallworld

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/smallworld/region"
	"github.com/meigma/smallworld/u8"
)

const (
	opMerge = "merge"
	opSplit = "split"
)

// Merge returns a region-free copy of a: every logical file present is
// stored once and listed under the filename of every target region.
//
// Regional versions that differ are resolved by policy; a nil policy means
// [DefaultPolicy]. Logical files absent from a stay absent. Unrecognized
// entries, and files named for regions outside [WithSources], are copied
// unchanged. The input archive is not modified.
func Merge(a *u8.Archive, policy Policy, opts ...Option) (*u8.Archive, error) {
	cfg := newConfig(opts)
	if cfg.targets.Empty() {
		return nil, ErrNoTargets
	}
	return convert(opMerge, a, policy, cfg.targets, cfg)
}

// Split returns a copy of a that only carries r's filename for each logical
// file present, in the form r's release ships it. Versions are resolved the
// same way as in Merge.
func Split(a *u8.Archive, r region.Region, policy Policy, opts ...Option) (*u8.Archive, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRegion, r)
	}
	return convert(opSplit, a, policy, region.NewSet(r), newConfig(opts))
}

// MergeBytes parses data, merges it and serializes the result.
func MergeBytes(data []byte, policy Policy, opts ...Option) ([]byte, error) {
	a, err := u8.Parse(data)
	if err != nil {
		return nil, err
	}
	out, err := Merge(a, policy, opts...)
	if err != nil {
		return nil, err
	}
	return u8.Serialize(out)
}

// SplitBytes parses data, splits it to r and serializes the result.
func SplitBytes(data []byte, r region.Region, policy Policy, opts ...Option) ([]byte, error) {
	a, err := u8.Parse(data)
	if err != nil {
		return nil, err
	}
	out, err := Split(a, r, policy, opts...)
	if err != nil {
		return nil, err
	}
	return u8.Serialize(out)
}

func convert(op string, a *u8.Archive, policy Policy, targets region.Set, cfg *config) (*u8.Archive, error) {
	if cfg.sources.Empty() {
		return nil, ErrNoSources
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	logger := cfg.logger

	cls := classify(a, cfg.sources)
	logger.Debug("classified archive",
		slog.String("op", op),
		slog.Int("roles", len(cls.Groups)),
		slog.Int("passthrough", len(cls.Passthrough)))

	chosen := make([]Candidate, len(cls.Groups))
	for i, g := range cls.Groups {
		c, err := policy.resolve(op, g)
		if err != nil {
			return nil, err
		}
		if g.Conflicting() {
			logger.Debug("resolved conflict",
				slog.String("role", g.Role.String()),
				slog.String("policy", policy.String()),
				slog.String("regions", c.Regions.String()),
				slog.String("digest", c.Digest.String()))
		}
		chosen[i] = c
	}

	out := u8.New()
	store := newPayloadStore(out)
	if err := copyPassthrough(store, a, cfg.sources); err != nil {
		return nil, fmt.Errorf("smallworld: %s: %w", op, err)
	}

	for i, g := range cls.Groups {
		id := store.add(chosen[i].Digest, chosen[i].Data)
		paths := targetPaths(g.Role, targets)
		for _, p := range paths {
			if err := claimName(out, p, policy, logger); err != nil {
				return nil, fmt.Errorf("smallworld: %s: %w", op, err)
			}
			if err := out.AddFile(p, id); err != nil {
				return nil, fmt.Errorf("smallworld: %s: %w", op, err)
			}
		}
		logger.Debug("emitted logical file",
			slog.String("role", g.Role.String()),
			slog.String("digest", chosen[i].Digest.String()),
			slog.Int("names", len(paths)))
	}

	out.SortChildren()
	return out, nil
}

// payloadStore adds payloads to an output archive, storing identical
// contents once.
type payloadStore struct {
	archive *u8.Archive
	ids     map[digest.Digest]u8.PayloadID
}

func newPayloadStore(a *u8.Archive) *payloadStore {
	return &payloadStore{archive: a, ids: make(map[digest.Digest]u8.PayloadID)}
}

// add returns the slot holding data, whose digest is d. The output owns a
// copy of data.
func (s *payloadStore) add(d digest.Digest, data []byte) u8.PayloadID {
	if id, ok := s.ids[d]; ok {
		return id
	}
	id := s.archive.AddPayload(slices.Clone(data))
	s.ids[d] = id
	return id
}

// claimName frees path in out for a resolved file. Only a passthrough file
// can hold a target name; it is removed when the policy allows it.
func claimName(out *u8.Archive, path string, policy Policy, logger *slog.Logger) error {
	n, ok := out.Lookup(path)
	if !ok {
		return nil
	}
	if n.IsDir() || !policy.replacesNames() {
		return fmt.Errorf("%w: %s", ErrNameTaken, path)
	}
	out.Remove(path)
	logger.Debug("replaced passthrough file", slog.String("path", path))
	return nil
}

// copyPassthrough copies every directory and every file of src that is not a
// source region's version into the store's archive.
func copyPassthrough(store *payloadStore, src *u8.Archive, sources region.Set) error {
	dst := store.archive
	for e := range src.Entries() {
		if e.IsDir {
			if _, err := dst.Mkdir(e.Path); err != nil {
				return err
			}
			continue
		}
		if _, _, ok := sourceLookup(e.Path, sources); ok {
			continue
		}
		id := store.add(digest.FromBytes(e.Data), e.Data)
		if err := dst.AddFile(e.Path, id); err != nil {
			return err
		}
	}
	return nil
}

// targetPaths returns the distinct paths the target regions expect for role.
func targetPaths(role region.Role, targets region.Set) []string {
	var paths []string
	seen := make(map[string]bool)
	for r := range targets.All() {
		p := region.Path(role, r)
		key := u8.FoldName(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		paths = append(paths, p)
	}
	return paths
}
