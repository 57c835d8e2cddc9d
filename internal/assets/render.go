package assets

import (
	"fmt"
	"html/template"
	"strings"
)

// Render loads the named template from loader and executes it with data.
func Render(loader Loader, name string, data any) (string, error) {
	src, err := loader.LoadTemplate(name)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return "", fmt.Errorf("%w: parsing %q: %v", ErrAssetRead, name, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("%w: executing %q: %v", ErrAssetRead, name, err)
	}
	return sb.String(), nil
}

// TrustedCSS marks stylesheet text safe for a <style> element. A closing
// style tag inside the text is broken up so it cannot end the element.
func TrustedCSS(css string) template.CSS {
	return template.CSS(closingStyle.Replace(css)) // #nosec G203 -- end tags neutralized
}

var closingStyle = strings.NewReplacer("</style", `<\/style`, "</STYLE", `<\/STYLE`)
