package api

import (
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/modules/ticketing/api/httphandler"
	"github.com/gatepass-network/boxoffice/modules/ticketing/usecase"
)

func NewHTTPHandler(network common.Network, usecase *usecase.Usecase, submitter httphandler.OperationSubmitter) *httphandler.HttpHandler {
	return httphandler.New(network, usecase, submitter)
}
