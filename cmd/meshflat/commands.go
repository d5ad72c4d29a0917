package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshflat/internal/config"
	"github.com/Faultbox/meshflat/internal/flatten"
	"github.com/Faultbox/meshflat/internal/session"
	"github.com/Faultbox/meshflat/internal/watch"
	"github.com/Faultbox/meshflat/pkg/scene"
)

var errUsage = errors.New("missing arguments")

func cmdInfo(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshflat info <scene>")
		return errUsage
	}
	s, err := openSession(ctx, cfg, log, args[0])
	if err != nil {
		return err
	}
	printInfo(os.Stdout, s)
	return nil
}

func printInfo(w io.Writer, s *session.Session) {
	sc := s.Scene()
	meta := s.Metadata()

	fmt.Fprintf(w, "Scene:      %s\n", s.Path())
	for _, key := range []string{flatten.MetaTitle, flatten.MetaSubject, flatten.MetaAuthor,
		flatten.MetaKeywords, flatten.MetaRevision, flatten.MetaComment} {
		if v := meta[key]; v != "" {
			fmt.Fprintf(w, "%-11s %s\n", key+":", v)
		}
	}
	fmt.Fprintf(w, "Geometries: %d\n", sc.GeometryCount())
	fmt.Fprintf(w, "Materials:  %d\n", sc.MaterialCount())
	fmt.Fprintf(w, "Nodes:      %d\n", sc.NodeCount())

	byType := make(map[scene.AttributeType]int)
	for i := 0; i < sc.GeometryCount(); i++ {
		byType[sc.Geometry(i).AttributeType()]++
	}
	types := make([]scene.AttributeType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	if len(types) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Geometries by type:")
		for _, t := range types {
			fmt.Fprintf(w, "  %-10s %d\n", t, byType[t])
		}
	}
}

func cmdGeometries(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshflat geometries <scene>")
		return errUsage
	}
	s, err := openSession(ctx, cfg, log, args[0])
	if err != nil {
		return err
	}

	if cfg.Flatten.Instances {
		instances, err := s.Instances(ctx)
		if instances == nil {
			return err
		}
		keys := make([]flatten.InstanceKey, 0, len(instances))
		for k := range instances {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].MeshID != keys[j].MeshID {
				return keys[i].MeshID < keys[j].MeshID
			}
			return keys[i].NodeID < keys[j].NodeID
		})
		for _, k := range keys {
			fmt.Printf("node %d: ", k.NodeID)
			printGeometry(os.Stdout, instances[k])
		}
		return err
	}

	catalog, err := s.Geometries(ctx)
	if catalog == nil {
		return err
	}
	ids := make([]scene.ID, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		printGeometry(os.Stdout, catalog[id])
	}
	return err
}

func printGeometry(w io.Writer, info *flatten.GeometryInfo) {
	fmt.Fprintf(w, "%d %q: %d control points, %d triangles\n",
		info.ID, info.Name, len(info.ControlPoints), info.TriangleCount())
	for _, id := range info.SectionIDs() {
		fmt.Fprintf(w, "  material %-8d %d triangles\n", id, info.Sections[id].TriangleCount())
	}
	if info.DroppedFaces > 0 || info.UnassignedFaces > 0 || info.InvalidAttributes > 0 {
		fmt.Fprintf(w, "  dropped %d, unassigned %d, invalid attributes %d\n",
			info.DroppedFaces, info.UnassignedFaces, info.InvalidAttributes)
	}
}

func cmdMaterials(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshflat materials <scene>")
		return errUsage
	}
	s, err := openSession(ctx, cfg, log, args[0])
	if err != nil {
		return err
	}

	materials := s.Materials()
	ids := make([]scene.ID, 0, len(materials))
	for id := range materials {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		m := materials[id]
		fmt.Printf("%d %q\n", m.ID, m.Name)
		printColor("diffuse", m.Diffuse)
		printColor("ambient", m.Ambient)
		printColor("specular", m.Specular)
		printColor("emissive", m.Emissive)
		printFactor("opacity", m.Opacity)
		printFactor("shininess", m.Shininess)
		printFactor("reflectivity", m.Reflectivity)
	}
	return nil
}

func printColor(name string, p flatten.ColorProperty) {
	fmt.Printf("  %-13s RGB(%.3f, %.3f, %.3f)", name, p.Color[0], p.Color[1], p.Color[2])
	if p.Texture != "" {
		fmt.Printf(", texture %s", p.Texture)
	}
	fmt.Println()
}

func printFactor(name string, p flatten.FactorProperty) {
	fmt.Printf("  %-13s %.3f", name, p.Factor)
	if p.Texture != "" {
		fmt.Printf(", texture %s", p.Texture)
	}
	fmt.Println()
}

func cmdNodes(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshflat nodes <scene>")
		return errUsage
	}
	s, err := openSession(ctx, cfg, log, args[0])
	if err != nil {
		return err
	}
	printNodes(os.Stdout, s.Nodes())
	return nil
}

func printNodes(w io.Writer, nodes []flatten.NodeInfo) {
	depth := make(map[scene.ID]int, len(nodes))
	for _, n := range nodes {
		d := 0
		if n.ParentID != 0 {
			d = depth[n.ParentID] + 1
		}
		depth[n.ID] = d

		line := fmt.Sprintf("%s%d %q", strings.Repeat("  ", d), n.ID, n.Name)
		if n.LinkedMeshID != 0 {
			line += fmt.Sprintf(" mesh=%d materials=%v", n.LinkedMeshID, n.LinkedMaterialIDs)
		}
		fmt.Fprintln(w, line)
	}
}

func cmdExport(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshflat export <scene> <out.mflt>")
		return errUsage
	}
	s, err := openSession(ctx, cfg, log, args[0])
	if err != nil {
		return err
	}
	if err := s.Export(ctx, args[1], exportOptions(cfg)); err != nil {
		return err
	}
	fmt.Printf("Exported to: %s\n", args[1])
	return nil
}

func cmdWatch(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshflat watch <scene> <out.mflt>")
		return errUsage
	}
	scenePath, out := args[0], args[1]

	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	return watch.File(ctx, scenePath, cfg.Watch.Debounce, log.Named("watch"), func(ctx context.Context) error {
		if err := s.Load(ctx, scenePath); err != nil {
			return err
		}
		if err := s.Export(ctx, out, exportOptions(cfg)); err != nil {
			return err
		}
		fmt.Printf("Exported to: %s\n", out)
		return nil
	})
}

func exportOptions(cfg *config.Config) session.ExportOptions {
	return session.ExportOptions{Weld: cfg.Export.Weld, Legacy: cfg.Export.Legacy}
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 && args[0] == "save" {
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Saved to: %s\n", filepath.Join(config.ConfigDir(), config.FileName))
		return nil
	}
	return printConfig(os.Stdout, cfg)
}

func printConfig(w io.Writer, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
