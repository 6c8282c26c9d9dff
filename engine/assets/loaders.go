package assets

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/spaghettifunk/lantern/engine/audio"
	"github.com/spaghettifunk/lantern/engine/helper"
	"github.com/spaghettifunk/lantern/engine/renderer"
)

// ScriptLoader reads Lua source. Data is a string.
type ScriptLoader struct{}

func (sl *ScriptLoader) Load(path string) (*Resource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Resource{
		Name:     helper.RemoveExtension(helper.FileNameFromPath(path)),
		FullPath: path,
		Data:     string(buf),
	}, nil
}

// ImageLoader decodes PNG and JPEG files. Data is an image.Image.
type ImageLoader struct{}

func (il *ImageLoader) Load(path string) (*Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return &Resource{
		Name:     helper.RemoveExtension(helper.FileNameFromPath(path)),
		FullPath: path,
		Data:     img,
	}, nil
}

// FontLoader loads overlay fonts. Data is a renderer.FontSource.
type FontLoader struct{}

func (fl *FontLoader) Load(path string) (*Resource, error) {
	fs, err := renderer.LoadFont(path)
	if err != nil {
		return nil, err
	}
	return &Resource{
		Name:     fs.Name(),
		FullPath: path,
		Data:     fs,
	}, nil
}

// SoundLoader decodes WAV files into the audio engine. Data is an
// *audio.Sound on Channel.
type SoundLoader struct {
	Engine  *audio.Engine
	Channel audio.Channel
}

func (sl *SoundLoader) Load(path string) (*Resource, error) {
	s, err := sl.Engine.LoadSound(path, sl.Channel)
	if err != nil {
		return nil, err
	}
	return &Resource{
		Name:     helper.RemoveExtension(helper.FileNameFromPath(path)),
		FullPath: path,
		Data:     s,
	}, nil
}

// Image loads the asset at path and checks that it is an image.
func (am *Manager) Image(path string) (image.Image, error) {
	res, err := am.Load(path)
	if err != nil {
		return nil, err
	}
	img, ok := res.Data.(image.Image)
	if !ok {
		return nil, ErrWrongResource
	}
	return img, nil
}

// Script loads the Lua source at path.
func (am *Manager) Script(path string) (string, error) {
	res, err := am.Load(path)
	if err != nil {
		return "", err
	}
	src, ok := res.Data.(string)
	if !ok {
		return "", ErrWrongResource
	}
	return src, nil
}
