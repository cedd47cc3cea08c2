package smssvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/campusgate/outpass/core"
)

var twilioBaseURL = "https://api.twilio.com/2010-04-01" // mockable

// twilioUnverifiedCode is returned when a trial account targets a number it has not verified.
const twilioUnverifiedCode = 21608

type twilioService struct {
	accountSID          string
	authToken           string
	from                string
	messagingServiceSID string
	client              *http.Client
}

var _ core.SMSService = (*twilioService)(nil)

func NewTwilioService(conf core.SMSConfig) (core.SMSService, error) {
	if conf.TwilioAccountSID == "" || conf.TwilioAuthToken == "" || (conf.TwilioFrom == "" && conf.TwilioMessagingServiceSID == "") {
		return nil, errors.New("twilio credentials are not properly configured")
	}
	return &twilioService{
		accountSID:          conf.TwilioAccountSID,
		authToken:           conf.TwilioAuthToken,
		from:                conf.TwilioFrom,
		messagingServiceSID: conf.TwilioMessagingServiceSID,
		client:              &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (svc *twilioService) Send(ctx context.Context, msg core.SMSMessage) (string, error) {
	form := url.Values{}
	form.Set("To", msg.To)
	if svc.messagingServiceSID != "" {
		form.Set("MessagingServiceSid", svc.messagingServiceSID)
	} else {
		form.Set("From", svc.from)
	}
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioBaseURL, svc.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "building twilio request")
	}
	req.SetBasicAuth(svc.accountSID, svc.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := svc.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling twilio")
	}
	defer func() { _ = res.Body.Close() }()

	var body twilioResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", errors.Wrapf(err, "decoding twilio response (status %d)", res.StatusCode)
	}
	if res.StatusCode >= http.StatusBadRequest {
		if body.Code == twilioUnverifiedCode {
			return "", fmt.Errorf("the number %s is unverified", msg.To)
		}
		if body.Message == "" {
			body.Message = "failed to send SMS"
		}
		return "", fmt.Errorf("twilio status %d: %s", res.StatusCode, body.Message)
	}
	return body.SID, nil
}
