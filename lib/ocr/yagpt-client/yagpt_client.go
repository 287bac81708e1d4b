package yagptclient

import (
	"context"

	"github.com/pkg/errors"
	yandexgptclient "github.com/sheeiavellie/go-yandexgpt"
)

// Provider turns raw OCR text into structured output. Temperature is
// pinned to zero so repeated extraction of the same scan is stable.
type Provider interface {
	GenerateByPromtAndText(ctx context.Context, promt, text string) (generatedText string, err error)
}

type impl struct {
	client   *yandexgptclient.YandexGPTClient
	folderID string
}

func NewClient(token, folderID string) Provider {
	return impl{
		client:   yandexgptclient.NewYandexGPTClientWithIAMToken(token),
		folderID: folderID,
	}
}

func (i impl) GenerateByPromtAndText(ctx context.Context, promt, text string) (generatedText string, err error) {
	request := yandexgptclient.YandexGPTRequest{
		ModelURI: yandexgptclient.MakeModelURI(i.folderID, yandexgptclient.YandexGPTModelLite),
		CompletionOptions: yandexgptclient.YandexGPTCompletionOptions{
			Stream:      false,
			Temperature: 0,
			MaxTokens:   2000,
		},
		Messages: []yandexgptclient.YandexGPTMessage{
			{
				Role: yandexgptclient.YandexGPTMessageRoleSystem,
				Text: promt,
			},
			{
				Role: yandexgptclient.YandexGPTMessageRoleUser,
				Text: text,
			},
		},
	}

	response, err := i.client.CreateRequest(ctx, request)
	if err != nil {
		return "", errors.Wrap(err, "field structuring request failed")
	}
	if len(response.Result.Alternatives) == 0 {
		return "", errors.New("field structuring returned no alternatives")
	}
	return response.Result.Alternatives[0].Message.Text, nil
}
