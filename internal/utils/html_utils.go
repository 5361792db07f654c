package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const embedTemplate = `<div class="video-container"><iframe src="https://www.youtube.com/embed/%s" frameborder="0" allowfullscreen allow="accelerometer; clipboard-write; encrypted-media; gyroscope; picture-in-picture"></iframe></div>`

// EnhanceHTMLContent 为图片增加懒加载属性，单独一行的 YouTube 链接转为嵌入播放器（挥杆视频）
func EnhanceHTMLContent(htmlStr string) string {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return htmlStr
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(text, "http") || strings.Contains(text, " ") {
			return
		}
		if id := youtubeID(text); id != "" {
			s.ReplaceWithHtml(strings.Replace(embedTemplate, "%s", id, 1))
		}
	})

	// goquery 会补全 html/body，只取 body 内容
	out, _ := doc.Find("body").Html()
	if out == "" {
		out, _ = doc.Html()
	}
	return out
}

func youtubeID(link string) string {
	var id string
	switch {
	case strings.Contains(link, "youtube.com/watch?v="):
		id = strings.Split(strings.SplitN(link, "v=", 2)[1], "&")[0]
	case strings.Contains(link, "youtu.be/"):
		id = strings.Split(strings.SplitN(link, "youtu.be/", 2)[1], "?")[0]
	default:
		return ""
	}
	// 只接受字母数字和 -_
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return ""
		}
	}
	return id
}
