package publish

import (
	"fmt"

	"github.com/joescharf/mdb/internal/models"
	"github.com/joescharf/mdb/internal/prompt"
)

// ResolveMethod picks the publish method: explicit flag, then persisted
// preference, then a prompt when the project is hosted on the platform's git
// host (remoteURL non-empty), otherwise ftp.
func ResolveMethod(flag, persisted models.PublishMethod, remoteURL string, p prompt.Prompter) (models.PublishMethod, error) {
	if flag != "" {
		return flag, nil
	}
	if persisted != "" {
		return persisted, nil
	}
	if remoteURL == "" {
		return models.PublishMethodFtp, nil
	}

	choice, err := p.Select(
		fmt.Sprintf("This project is hosted at %s. How do you want to publish it?", remoteURL),
		[]string{string(models.PublishMethodFtp), string(models.PublishMethodPipeline)},
		string(models.PublishMethodFtp),
	)
	if err != nil {
		return "", fmt.Errorf("choose publish method: %w", err)
	}
	return models.ParsePublishMethod(choice)
}
