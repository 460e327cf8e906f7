package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxProducts is the hard cap on products per request. Requests over the cap
// are rejected before any model call.
const MaxProducts = 3

// Image upload field names. The field was renamed from "image" to "file" at
// some point and older clients still send the old name, so both are accepted.
const (
	ImageFieldName       = "file"
	LegacyImageFieldName = "image"
)

// ValidateRequest checks the uploaded parts and the raw products payload and
// builds an AnalysisRequest. Checks run in order and short-circuit on the
// first failure, which is returned as *InvalidInputError.
func ValidateRequest(uploads map[string]Upload, productsPayload []byte) (*AnalysisRequest, error) {
	img, ok := uploads[ImageFieldName]
	if !ok {
		img, ok = uploads[LegacyImageFieldName]
	}
	if !ok {
		return nil, &InvalidInputError{Kind: KindNotAnImage, Msg: "no image uploaded"}
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return nil, &InvalidInputError{
			Kind: KindNotAnImage,
			Msg:  fmt.Sprintf("uploaded file must be an image, got %q", img.ContentType),
		}
	}

	var payload []struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.Unmarshal(productsPayload, &payload); err != nil {
		return nil, &InvalidInputError{
			Kind: KindMalformedProducts,
			Msg:  fmt.Sprintf("products payload is not a JSON list: %v", err),
		}
	}
	if len(payload) == 0 {
		return nil, &InvalidInputError{Kind: KindMalformedProducts, Msg: "products list is empty"}
	}

	products := make([]Product, 0, len(payload))
	names := make([]string, 0, len(payload))
	for i, p := range payload {
		if p.Name == nil || strings.TrimSpace(*p.Name) == "" || p.Description == nil {
			return nil, &InvalidInputError{
				Kind:         KindMissingField,
				Msg:          fmt.Sprintf("product %d must have both a name and a description", i+1),
				ProductNames: names,
			}
		}
		products = append(products, Product{Name: *p.Name, Description: *p.Description})
		names = append(names, *p.Name)
	}

	if len(products) > MaxProducts {
		return nil, &InvalidInputError{
			Kind:         KindTooManyProducts,
			Msg:          fmt.Sprintf("at most %d products per analysis, got %d", MaxProducts, len(products)),
			ProductNames: names,
		}
	}

	return &AnalysisRequest{Image: img, Products: products}, nil
}
