// Package assets indexes the files under the assets directory, loads them by
// kind and reports changes while the engine runs.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/lantern/engine/core"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindScript
	KindSound
	KindImage
	KindFont
)

func (k Kind) String() string {
	switch k {
	case KindScript:
		return "script"
	case KindSound:
		return "sound"
	case KindImage:
		return "image"
	case KindFont:
		return "font"
	}
	return "none"
}

type AssetInfo struct {
	Path    string
	Kind    Kind
	ModTime time.Time
}

// Resource is a loaded asset. The type of Data depends on the loader.
type Resource struct {
	Name     string
	FullPath string
	Kind     Kind
	Data     interface{}
}

type Loader interface {
	Load(path string) (*Resource, error)
}

// Manager keeps an index of the asset directory up to date. OnChange is called
// from the watcher goroutine for every created or modified asset.
type Manager struct {
	root     string
	onChange func(AssetInfo)

	assets  map[string]AssetInfo
	loaders map[Kind]Loader
	mutex   sync.RWMutex

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	isClosed bool
}

func NewManager(root string, onChange func(AssetInfo)) (*Manager, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("asset root %s is not a directory", root)
	}
	return &Manager{
		root:     filepath.Clean(root),
		onChange: onChange,
		assets:   make(map[string]AssetInfo),
		loaders: map[Kind]Loader{
			KindScript: &ScriptLoader{},
			KindImage:  &ImageLoader{},
			KindFont:   &FontLoader{},
		},
	}, nil
}

// Initialize indexes the asset directory. With watch set, sub-directories are
// watched and the index follows the file system.
func (am *Manager) Initialize(watch bool) error {
	if watch {
		fsWatch, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		am.fsnotify = fsWatch
		am.done = make(chan struct{})
	}
	if err := am.walk(am.root); err != nil {
		am.Close()
		return err
	}
	if watch {
		am.wg.Add(1)
		go am.start()
	}
	core.LogInfo("indexed %d assets in %s", am.Len(), am.root)
	return nil
}

// RegisterLoader sets the loader for kind, replacing the default one.
func (am *Manager) RegisterLoader(kind Kind, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[kind] = loader
}

// Load an asset using the loader of its kind. path is relative to the working
// directory, like the paths of the index.
func (am *Manager) Load(path string) (*Resource, error) {
	path = filepath.Clean(path)
	am.mutex.RLock()
	asset, exists := am.assets[path]
	var loader Loader
	if exists {
		loader = am.loaders[asset.Kind]
	}
	am.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("asset not found: %s", path)
	}
	if loader == nil {
		return nil, fmt.Errorf("no loader registered for %s assets", asset.Kind)
	}
	res, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	res.Kind = asset.Kind
	return res, nil
}

func (am *Manager) Get(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	a, ok := am.assets[filepath.Clean(path)]
	return a, ok
}

// List returns the assets of kind sorted by path. KindNone lists everything.
func (am *Manager) List(kind Kind) []AssetInfo {
	am.mutex.RLock()
	list := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		if kind == KindNone || a.Kind == kind {
			list = append(list, a)
		}
	}
	am.mutex.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	return list
}

func (am *Manager) Len() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

func (am *Manager) Root() string {
	return am.root
}

func (am *Manager) Close() error {
	am.mutex.Lock()
	if am.isClosed || am.fsnotify == nil {
		am.isClosed = true
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	err := am.fsnotify.Close()
	am.wg.Wait()
	return err
}

func (am *Manager) start() {
	defer am.wg.Done()
	for {
		select {
		case <-am.done:
			return
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)
		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)
		}
	}
}

func (am *Manager) handleEvent(e fsnotify.Event) {
	name := filepath.Clean(e.Name)
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		// a removed directory takes its watch with it
		am.removePrefix(name)
		return
	}
	if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) {
		return
	}
	fi, err := os.Stat(name)
	if err != nil {
		return
	}
	if fi.IsDir() {
		if e.Has(fsnotify.Create) {
			if err := am.walk(name); err != nil {
				core.LogWarn("failed to watch %s: %s", name, err)
			}
		}
		return
	}
	if info, ok := am.index(name, fi); ok && am.onChange != nil {
		am.onChange(info)
	}
}

// walk indexes every file under path and watches its directories.
func (am *Manager) walk(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if am.fsnotify != nil {
				return am.fsnotify.Add(walkPath)
			}
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		am.index(walkPath, fi)
		return nil
	})
}

func (am *Manager) index(path string, fi fs.FileInfo) (AssetInfo, bool) {
	kind := KindOf(path)
	if kind == KindNone {
		return AssetInfo{}, false
	}
	info := AssetInfo{
		Path:    filepath.Clean(path),
		Kind:    kind,
		ModTime: fi.ModTime(),
	}
	am.mutex.Lock()
	am.assets[info.Path] = info
	am.mutex.Unlock()
	return info, true
}

func (am *Manager) removePrefix(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	for p := range am.assets {
		if p == path || strings.HasPrefix(p, path+string(filepath.Separator)) {
			delete(am.assets, p)
		}
	}
}

// KindOf classifies a file by its extension.
func KindOf(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		return KindScript
	case ".wav":
		return KindSound
	case ".png", ".jpg", ".jpeg":
		return KindImage
	case ".fnt", ".ttf", ".otf":
		return KindFont
	default:
		return KindNone
	}
}

var ErrWrongResource = errors.New("resource has an unexpected type")
