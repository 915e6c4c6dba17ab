package xserver

import (
	"bufio"
	"io"
	"slices"
	"strconv"
)

// 响应状态行
const (
	StatusOK              = "HTTP/1.1 200 OK"
	StatusBadRequest      = "HTTP/1.1 400 BAD REQUEST"
	StatusNotFound        = "HTTP/1.1 404 NOT FOUND"
	StatusTooManyRequests = "HTTP/1.1 429 TOO MANY REQUESTS"

	bodyTooManyRequests = "too many requests\n"
)

// statusCode 从状态行中取出状态码，用于日志。
func statusCode(status string) int {
	if len(status) < 12 {
		return 0
	}
	code, _ := strconv.Atoi(status[9:12])
	return code
}

// writeResponse 写出 "<status>\r\n[headers]Content-Length: n\r\n\r\n<body>"，额外头按名称排序。
func writeResponse(w io.Writer, status string, headers map[string]string, body []byte) error {
	bw := bufio.NewWriterSize(w, 256+len(body))
	bw.WriteString(status)
	bw.WriteString("\r\n")
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		bw.WriteString(k)
		bw.WriteString(": ")
		bw.WriteString(headers[k])
		bw.WriteString("\r\n")
	}
	bw.WriteString("Content-Length: ")
	bw.WriteString(strconv.Itoa(len(body)))
	bw.WriteString("\r\n\r\n")
	bw.Write(body)
	return bw.Flush()
}
