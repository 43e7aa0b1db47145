package vfs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/winnowhq/winnow/domain"
	"github.com/winnowhq/winnow/internal/logging"
)

// transformCacheSize bounds the synthesized-text cache. Entries are keyed
// by content hash, so edits between runs never serve stale text.
const transformCacheSize = 1024

// Transform synthesizes natively parsable text from a non-native file
type Transform func(path string, content []byte) ([]byte, error)

// Registration binds a file extension to its transform
type Registration struct {
	// Ext is the transformable extension, lowercase with dot (".vue")
	Ext string

	// TargetExt is the native extension the synthesized text carries
	TargetExt string

	// Async marks transforms the compile pass runs ahead of the analysis
	// loop so seeded files hit a warm cache
	Async bool

	Transform Transform
}

// Layer intercepts reads for registered extensions and serves synthesized
// stand-ins. Everything downstream addresses a transformed file by its
// virtual path and never learns the file was transformed.
type Layer struct {
	mu       sync.Mutex
	registry map[string]Registration
	cache    *lru.Cache[string, []byte]

	warnings []string
	log      *logrus.Entry
}

// NewLayer creates an empty virtual file layer
func NewLayer() *Layer {
	cache, _ := lru.New[string, []byte](transformCacheSize)
	return &Layer{
		registry: make(map[string]Registration),
		cache:    cache,
		log:      logging.Scope("vfs"),
	}
}

// Register adds a transform for one extension, replacing any previous one
func (l *Layer) Register(reg Registration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registry[strings.ToLower(reg.Ext)] = reg
}

// IsVirtual reports whether the path's extension has a registered transform
func (l *Layer) IsVirtual(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.registry[strings.ToLower(filepath.Ext(path))]
	return ok
}

// VirtualExts returns the extension mapping for resolver configuration
func (l *Layer) VirtualExts() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	exts := make(map[string]string, len(l.registry))
	for ext, reg := range l.registry {
		exts[ext] = reg.TargetExt
	}
	return exts
}

// VirtualPath derives the stand-in path for a transformable file by
// appending the target extension (App.vue -> App.vue.ts). Native files
// map to themselves.
func (l *Layer) VirtualPath(realPath string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	reg, ok := l.registry[strings.ToLower(filepath.Ext(realPath))]
	if !ok {
		return realPath
	}
	return realPath + reg.TargetExt
}

// RealPath reverses VirtualPath. Paths that are not stand-ins map to
// themselves.
func (l *Layer) RealPath(virtualPath string) string {
	stem := strings.TrimSuffix(virtualPath, filepath.Ext(virtualPath))
	l.mu.Lock()
	defer l.mu.Unlock()
	reg, ok := l.registry[strings.ToLower(filepath.Ext(stem))]
	if ok && virtualPath == stem+reg.TargetExt {
		return stem
	}
	return virtualPath
}

// Load reads a file and returns the text to parse plus the path to parse it
// under. Registered transforms run eagerly on first access; Precompile only
// warms the cache for async transforms, so a file discovered mid-run through
// an import edge still transforms here.
func (l *Layer) Load(path string) ([]byte, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", domain.NewFileError(fmt.Sprintf("failed to read %s", path), err)
	}

	l.mu.Lock()
	reg, ok := l.registry[strings.ToLower(filepath.Ext(path))]
	l.mu.Unlock()
	if !ok {
		return content, path, nil
	}

	key := contentKey(reg.Ext, content)
	virtualPath := path + reg.TargetExt

	l.mu.Lock()
	cached, hit := l.cache.Get(key)
	l.mu.Unlock()
	if hit {
		return cached, virtualPath, nil
	}

	if reg.Async {
		l.log.WithField("path", path).Debug("async transform compiled inline")
	}

	synthesized, err := reg.Transform(path, content)
	if err != nil {
		return nil, "", domain.NewTransformError(fmt.Sprintf("transform failed for %s", path), err)
	}

	l.mu.Lock()
	l.cache.Add(key, synthesized)
	l.mu.Unlock()

	return synthesized, virtualPath, nil
}

// Precompile warms the cache for every async transform over the given paths
// before the analysis loop starts. Files transform independently, so the
// pass fans out across a bounded worker group; cache writes stay behind the
// layer's lock. A failing transform skips its file and records a warning,
// it never aborts the pass.
func (l *Layer) Precompile(ctx context.Context, paths []string, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, path := range paths {
		l.mu.Lock()
		reg, ok := l.registry[strings.ToLower(filepath.Ext(path))]
		l.mu.Unlock()
		if !ok || !reg.Async {
			continue
		}

		path := path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			content, err := os.ReadFile(path)
			if err != nil {
				l.warn(fmt.Sprintf("skipped %s: %v", path, err))
				return nil
			}

			key := contentKey(reg.Ext, content)
			l.mu.Lock()
			_, hit := l.cache.Get(key)
			l.mu.Unlock()
			if hit {
				return nil
			}

			synthesized, err := reg.Transform(path, content)
			if err != nil {
				l.warn(fmt.Sprintf("transform failed for %s: %v", path, err))
				return nil
			}

			l.mu.Lock()
			l.cache.Add(key, synthesized)
			l.mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

// Warnings returns per-file diagnostics collected so far
func (l *Layer) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warnings...)
}

func (l *Layer) warn(msg string) {
	l.log.Debug(msg)
	l.mu.Lock()
	l.warnings = append(l.warnings, msg)
	l.mu.Unlock()
}

// contentKey keys the cache by extension and content hash: byte-identical
// files under different extensions must not share synthesized text
func contentKey(ext string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(ext)))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
