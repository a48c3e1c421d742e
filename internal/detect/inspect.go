package detect

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// DocumentInfo describes a PDF at the object level.
type DocumentInfo struct {
	Pages     int  `json:"pages"`
	Encrypted bool `json:"encrypted"`
	HasImages bool `json:"has_images"`
}

// Inspect reads the PDF object model. It is advisory: callers must treat an
// error as "unknown", never as a reason to fail the run.
func Inspect(data []byte) (info DocumentInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return info, fmt.Errorf("pdfcpu read: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return info, fmt.Errorf("pdfcpu page count: %w", err)
	}
	info.Pages = ctx.PageCount
	info.Encrypted = ctx.Encrypt != nil
	info.HasImages = hasImageStreams(ctx)
	return info, nil
}

func hasImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}
