package httpserver

import "net/http"

// decoyHTML is the static newspaper-like page served to classifier-flagged
// bots (excluding social-preview crawlers) for GET /:slug, per spec.md
// §4.10 step 4. It carries no per-link content deliberately: serving it is
// the bot short-circuit, before any Link Store lookup happens.
const decoyHTML = `<!DOCTYPE html>
<html lang="vi">
<head>
<meta charset="utf-8">
<title>Tin tức hôm nay</title>
<meta name="robots" content="noindex, nofollow">
</head>
<body>
<header><h1>Tin tức hôm nay</h1></header>
<main>
<article>
<h2>Cập nhật thị trường</h2>
<p>Trang đang được cập nhật nội dung mới nhất. Vui lòng quay lại sau.</p>
</article>
</main>
</body>
</html>`

// serveDecoy writes the bot-path response: 200, noindex, a small static
// page, no click side effects.
func serveDecoy(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Robots-Tag", "noindex, nofollow")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(decoyHTML))
}
