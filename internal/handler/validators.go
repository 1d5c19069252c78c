package handler

import (
	"errors"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// BT v1的info-hash是SHA-1，40位十六进制
var infoHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// RegisterValidations 往gin的binding里挂自定义校验器，进程启动时调一次
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("binding引擎不是validator，无法注册自定义校验")
	}
	return v.RegisterValidation("infohash", func(fl validator.FieldLevel) bool {
		return infoHashPattern.MatchString(fl.Field().String())
	})
}
