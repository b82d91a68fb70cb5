package runner

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bbnlabs/reliability-planner/internal/config"
)

// DockerRunner launches compute tasks as containers through the Docker
// Engine API.
type DockerRunner struct {
	cli        *client.Client
	image      string
	namePrefix string
	network    string
}

var _ TaskRunner = (*DockerRunner)(nil)

func NewDockerRunner(cfg *config.Config) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "creating docker client")
	}
	return &DockerRunner{
		cli:        cli,
		image:      cfg.Runner.Image,
		namePrefix: cfg.Runner.ContainerName,
		network:    cfg.Runner.Network,
	}, nil
}

func (r *DockerRunner) Start(ctx context.Context, task Task) (string, error) {
	containerConfig := &container.Config{
		Image: r.image,
		Env:   task.Environ(),
	}
	hostConfig := &container.HostConfig{}
	if r.network != "" {
		hostConfig.NetworkMode = container.NetworkMode(r.network)
	}

	// container names must be unique per daemon, so suffix with the job id
	name := fmt.Sprintf("%s-%s", r.namePrefix, task.JobID)

	resp, err := r.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, name)
	if err != nil {
		return "", errors.Wrapf(err, "creating container for job %s", task.JobID)
	}

	if err := r.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", errors.Wrapf(err, "starting container %s", resp.ID)
	}

	zap.S().Named("runner").Infow("compute task started",
		"job_id", task.JobID,
		"job_type", task.JobType,
		"container_id", resp.ID,
	)
	return resp.ID, nil
}
