package services

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"jejuboard/internal/apperr"
	"jejuboard/internal/utils"

	"github.com/google/uuid"
)

const (
	// URLPrefix 上传文件对外访问的路径前缀
	URLPrefix      = utils.UploadsPrefix
	maxImageSize   = 10 * 1024 * 1024
	defaultImgExt  = ".jpg"
	uploadFileMode = 0o755
)

// ImageStore 把帖子配图保存到本地目录
type ImageStore struct {
	Dir string
}

func NewImageStore(dir string) *ImageStore {
	return &ImageStore{Dir: dir}
}

func imageExt(header *multipart.FileHeader) string {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != "" {
		return ext
	}
	// 根据 MIME 类型推断扩展名
	switch header.Header.Get("Content-Type") {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return defaultImgExt
	}
}

// Save 校验并保存上传的图片，返回可访问的 URL
func (s *ImageStore) Save(header *multipart.FileHeader) (string, error) {
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.Validation("只允许上传图片文件。")
	}
	if header.Size > maxImageSize {
		return "", apperr.Validation("图片大小不能超过 10MB。")
	}

	src, err := header.Open()
	if err != nil {
		return "", apperr.Internal("读取文件失败", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.Dir, uploadFileMode); err != nil {
		return "", apperr.Internal("创建上传目录失败", err)
	}

	name := fmt.Sprintf("post_%s%s", uuid.New().String(), imageExt(header))
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", apperr.Internal("保存文件失败", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", apperr.Internal("保存文件失败", err)
	}
	return URLPrefix + name, nil
}

// Remove 尽力删除之前保存的图片，失败只记录日志
func (s *ImageStore) Remove(url string) {
	if !strings.HasPrefix(url, URLPrefix) {
		return
	}
	name := filepath.Base(strings.TrimPrefix(url, URLPrefix))
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !os.IsNotExist(err) {
		log.Printf("[Upload] 删除图片失败 %s: %v", name, err)
	}
}
