package handler

import (
	"github.com/sirupsen/logrus"

	"mdxserver/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}
