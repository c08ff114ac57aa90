package containermgr

import (
	"context"
	"fmt"
	"log"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// executorPort is the port every executor image listens on for the
// dispatch transport (see internal/transport).
const executorPort = "7777/tcp"

// DockerClient launches and tears down the container backing one
// executor. It is the ContainerManager-side counterpart of the
// per-task-group container the teacher orchestrator used to run; here
// one container hosts a whole long-lived executor process instead of a
// single task group.
type DockerClient struct {
	client *client.Client
}

// NewDockerClient connects using the environment (DOCKER_HOST, TLS
// vars, …), matching client.FromEnv.
func NewDockerClient() (*DockerClient, error) {
	c, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		return nil, fmt.Errorf("connecting to docker daemon: %w", err)
	}
	return &DockerClient{client: c}, nil
}

// RunExecutor pulls image, starts a container named name publishing
// executorPort, and returns the container id and the host:port address
// the dispatch transport should reach it on.
func (d *DockerClient) RunExecutor(ctx context.Context, name string, img string) (containerID string, address string, err error) {
	reader, err := d.client.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return "", "", fmt.Errorf("pulling image %s: %w", img, err)
	}
	defer reader.Close()

	exposedPorts, portBindings, err := nat.ParsePortSpecs([]string{executorPort})
	if err != nil {
		return "", "", fmt.Errorf("parsing executor port spec: %w", err)
	}

	containerConfig := container.Config{
		Image:        img,
		Tty:          false,
		ExposedPorts: exposedPorts,
	}

	hostConfig := container.HostConfig{
		RestartPolicy:   container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
		PortBindings:    portBindings,
		PublishAllPorts: true,
	}

	resp, err := d.client.ContainerCreate(ctx, &containerConfig, &hostConfig, nil, nil, name)
	if err != nil {
		return "", "", fmt.Errorf("creating container %s: %w", name, err)
	}

	if err := d.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", "", fmt.Errorf("starting container %s: %w", name, err)
	}

	inspected, err := d.client.ContainerInspect(ctx, resp.ID)
	if err != nil {
		return "", "", fmt.Errorf("inspecting container %s: %w", name, err)
	}

	addr := inspected.NetworkSettings.IPAddress + ":7777"

	log.Printf("[containermgr] started executor container %s (%s) at %s", name, resp.ID[:12], addr)

	return resp.ID, addr, nil
}

// StopExecutor stops and removes the given container.
func (d *DockerClient) StopExecutor(ctx context.Context, containerID string) error {
	if err := d.client.ContainerStop(ctx, containerID, container.StopOptions{}); err != nil {
		return fmt.Errorf("stopping container %s: %w", containerID, err)
	}

	if err := d.client.ContainerRemove(ctx, containerID, container.RemoveOptions{RemoveVolumes: true}); err != nil {
		return fmt.Errorf("removing container %s: %w", containerID, err)
	}

	return nil
}
