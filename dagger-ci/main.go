// CI module for Pencraft: tests, multi-arch images and publishing.
//
// Functions are called from the dagger CLI, e.g.
//
//	dagger call test --source=..
//	dagger call build-local --name=pencraft.tar --source=..
package main

import (
	"context"
	"dagger/pencraft/internal/dagger"
	"fmt"
)

type Pencraft struct{}

func (m *Pencraft) GoBuildEnv(source *dagger.Directory) *dagger.Container {
	goCache := dag.CacheVolume("go")
	return dag.Container().
		From("golang:alpine").
		WithDirectory("/src", source, dagger.ContainerWithDirectoryOpts{Exclude: []string{"dagger-ci/", "_examples/"}}).
		WithWorkdir("/src").
		WithEnvVariable("GOOS", "linux").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", goCache).
		WithExec([]string{"go", "mod", "download"})
}

// Test runs unit tests. SQLite driver is pure Go, no database container needed.
func (m *Pencraft) Test(ctx context.Context, source *dagger.Directory) (string, error) {
	return m.GoBuildEnv(source).
		WithExec([]string{"go", "vet", "./..."}).
		WithExec([]string{"go", "test", "-count=1", "./..."}).
		Stdout(ctx)
}

func (m *Pencraft) BackEnv(platform dagger.Platform, appBin *dagger.File) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{
		Platform: platform,
	}).
		From("alpine").
		WithEnvVariable("TZ", "Europe/Moscow").
		WithExec([]string{"apk", "add", "--no-cache", "curl", "tzdata"}).
		WithWorkdir("/app").
		WithFile("/app/app", appBin).
		WithEnvVariable("LOCAL_STORAGE_PATH", "/data/uploads").
		WithEnvVariable("SQLITE_PATH", "/data/pencraft.db").
		WithExposedPort(8080).
		WithExposedPort(2112).
		WithEntrypoint([]string{"/app/app"})
}

func (m *Pencraft) Build(version string, source *dagger.Directory) []*dagger.Container {
	buildMatrix := []struct {
		Arch     string
		BinName  string
		Platform dagger.Platform
	}{
		{
			Arch:     "amd64",
			BinName:  "/build/pencraft-linux",
			Platform: dagger.Platform("linux/amd64"),
		},
		{
			Arch:     "arm64",
			BinName:  "/build/pencraft-linux-arm64",
			Platform: dagger.Platform("linux/arm64/v8"),
		},
	}

	var images []*dagger.Container
	for _, buildParam := range buildMatrix {
		builder := m.GoBuildEnv(source).
			WithEnvVariable("GOARCH", buildParam.Arch).
			WithExec([]string{"go", "build", "-o", buildParam.BinName, "-ldflags", fmt.Sprintf("-s -w -X main.version=%s", version), "./cmd/pencraft"})

		image := m.BackEnv(buildParam.Platform, builder.File(buildParam.BinName)).
			WithLabel("org.opencontainers.image.source", "https://github.com/aisa-it/pencraft").
			WithAnnotation("org.opencontainers.image.source", "https://github.com/aisa-it/pencraft")
		images = append(images, image)
	}
	return images
}

func (m *Pencraft) Publish(
	ctx context.Context,
	images []*dagger.Container,
	registrySecret *dagger.Secret,
	registryUser string,
	imageName string,
) (string, error) {
	return dag.Container().
		WithRegistryAuth("ghcr.io", registryUser, registrySecret).
		Publish(ctx, "ghcr.io/"+imageName, dagger.ContainerPublishOpts{PlatformVariants: images})
}

func (m *Pencraft) Export(
	ctx context.Context,
	images []*dagger.Container,
	imageName string,
) (string, error) {
	return dag.Container().
		Export(ctx, imageName, dagger.ContainerExportOpts{PlatformVariants: images})
}

func (m *Pencraft) BuildLocal(ctx context.Context, name string, source *dagger.Directory) (string, error) {
	return m.Export(ctx, m.Build("v0.1.0", source), name)
}

// BuildApp tests, builds and publishes images tagged with version and latest.
func (m *Pencraft) BuildApp(ctx context.Context, version string, source *dagger.Directory,
	registrySecret *dagger.Secret,
	registryUser string,
	imageName string,
) error {
	if _, err := m.Test(ctx, source); err != nil {
		return err
	}
	back := m.Build(version, source)

	for _, tag := range []string{version, "latest"} {
		ref, err := m.Publish(ctx, back, registrySecret, registryUser, fmt.Sprintf("%s:%s", imageName, tag))
		if err != nil {
			return err
		}
		fmt.Println(ref)
	}
	return nil
}
