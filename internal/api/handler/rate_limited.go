package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

var rateLimitedPage = template.Must(template.New("rate-limited").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Too many requests</title></head>
<body>
<h1>Too many requests</h1>
<p>You have made too many requests. Please try again in {{.}} seconds.</p>
</body>
</html>
`))

// RateLimited renders the page browsers are redirected to when throttled.
func RateLimited(c echo.Context) error {
	retry, err := strconv.Atoi(c.QueryParam("retryAfter"))
	if err != nil || retry < 1 {
		retry = 60
	}

	var buf bytes.Buffer
	if err := rateLimitedPage.Execute(&buf, retry); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(retry))
	return c.HTMLBlob(http.StatusTooManyRequests, buf.Bytes())
}
