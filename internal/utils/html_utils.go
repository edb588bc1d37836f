package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UploadsPrefix 站内上传图片的访问前缀
const UploadsPrefix = "/uploads/"

// EnhanceHTMLContent 给正文里的图片补上懒加载属性，外链加 nofollow
func EnhanceHTMLContent(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		img.SetAttr("loading", "lazy")
		img.SetAttr("referrerpolicy", "no-referrer")
		if src, _ := img.Attr("src"); strings.HasPrefix(src, UploadsPrefix) {
			img.AddClass("post-image")
		}
	})

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			a.SetAttr("rel", "nofollow noopener noreferrer")
		}
	})

	// 解析时会补全 html/body，这里只要 body 里的片段
	body, err := doc.Find("body").Html()
	if err != nil || body == "" {
		body, _ = doc.Html()
	}
	return body
}
