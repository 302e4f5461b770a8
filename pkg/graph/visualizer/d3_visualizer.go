package visualizer

import (
	"bytes"
	"encoding/json"
	"html/template"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/algorithms"
)

// TypeColors is the node colour per entity type
var TypeColors = map[string]string{
	graph.TypePeople:   "#4C78A8",
	graph.TypeOrgs:     "#F58518",
	graph.TypePlaces:   "#54A24B",
	graph.TypeDates:    "#B279A2",
	graph.TypeEmails:   "#E45756",
	graph.TypeURLs:     "#72B7B2",
	graph.TypeSkills:   "#FF9DA6",
	graph.TypeProjects: "#9C755F",
}

// DefaultColor is used for node types without an entry in TypeColors
const DefaultColor = "#999999"

// ColorFor returns the node colour of an entity type.
func ColorFor(typ string) string {
	if c, ok := TypeColors[typ]; ok {
		return c
	}
	return DefaultColor
}

// Options controls the rendered page
type Options struct {
	Title   string
	Height  int  // pixels
	Physics bool // keep the force simulation running
}

// DefaultOptions matches the interactive UI defaults.
func DefaultOptions() Options {
	return Options{
		Title:   "Knowledge Graph",
		Height:  700,
		Physics: true,
	}
}

type renderNode struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Color    string   `json:"color"`
	Degree   int      `json:"degree"`
	Radius   float64  `json:"radius"`
	Mentions int      `json:"mentions"`
	Sources  []string `json:"sources,omitempty"`
}

type renderEdge struct {
	Source    string   `json:"source"`
	Target    string   `json:"target"`
	Predicate string   `json:"predicate"`
	Weight    int      `json:"weight"`
	Evidence  []string `json:"evidence,omitempty"`
}

type renderData struct {
	Nodes []renderNode `json:"nodes"`
	Edges []renderEdge `json:"edges"`
}

// The HTML template for D3.js visualization
const d3Template = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <script src="https://d3js.org/d3.v7.min.js"></script>
    <style>
        body {
            margin: 0;
            font-family: Arial, sans-serif;
        }
        #graph {
            width: 100%;
            height: {{.Height}}px;
            background-color: #f5f5f5;
        }
        .node {
            stroke: #fff;
            stroke-width: 1.5px;
        }
        .link {
            stroke: #999;
            stroke-opacity: 0.6;
        }
        .link-label {
            font-size: 9px;
            fill: #555;
            pointer-events: none;
        }
        .node-label {
            font-size: 10px;
            pointer-events: none;
        }
        .controls {
            position: absolute;
            top: 10px;
            left: 10px;
            background-color: rgba(255,255,255,0.8);
            padding: 10px;
            border-radius: 5px;
            box-shadow: 0 0 10px rgba(0,0,0,0.1);
        }
        .legend span {
            display: inline-block;
            width: 10px;
            height: 10px;
            margin-right: 4px;
            border-radius: 50%;
        }
    </style>
</head>
<body>
    <div id="graph"></div>
    <div class="controls">
        <h3>{{.Title}}</h3>
        <p>Nodes: {{.NodeCount}}, Edges: {{.EdgeCount}}</p>
        <div>
            <label for="node-type-filter">Filter by node type:</label>
            <select id="node-type-filter">
                <option value="all">All Types</option>
            </select>
        </div>
        <div class="legend" id="legend"></div>
    </div>

    <script>
        const graphData = {{.GraphData}};
        const physics = {{.Physics}};
        const container = document.getElementById("graph");
        const width = container.clientWidth || window.innerWidth;
        const height = container.clientHeight || {{.Height}};

        const simulation = d3.forceSimulation(graphData.nodes)
            .force("link", d3.forceLink(graphData.edges).id(d => d.id).distance(120))
            .force("charge", d3.forceManyBody().strength(-300))
            .force("collide", d3.forceCollide().radius(d => d.radius + 4))
            .force("center", d3.forceCenter(width / 2, height / 2));

        const svg = d3.select("#graph")
            .append("svg")
            .attr("width", "100%")
            .attr("height", "100%")
            .call(d3.zoom().on("zoom", (event) => {
                g.attr("transform", event.transform);
            }));

        svg.append("defs").append("marker")
            .attr("id", "arrow")
            .attr("viewBox", "0 -5 10 10")
            .attr("refX", 10)
            .attr("markerWidth", 6)
            .attr("markerHeight", 6)
            .attr("orient", "auto")
            .append("path")
            .attr("d", "M0,-5L10,0L0,5")
            .attr("fill", "#999");

        const g = svg.append("g");

        const nodeTypes = [...new Set(graphData.nodes.map(node => node.type))];
        nodeTypes.forEach(type => {
            d3.select("#node-type-filter")
                .append("option")
                .attr("value", type)
                .text(type);
            const color = graphData.nodes.find(n => n.type === type).color;
            const item = d3.select("#legend").append("div");
            item.append("span").style("background-color", color);
            item.append("small").text(type);
        });

        const link = g.append("g")
            .selectAll("line")
            .data(graphData.edges)
            .enter()
            .append("line")
            .attr("class", "link")
            .attr("marker-end", "url(#arrow)")
            .attr("stroke-width", d => Math.min(1 + Math.sqrt(d.weight) * 1.5, 8));

        const linkLabel = g.append("g")
            .selectAll("text")
            .data(graphData.edges)
            .enter()
            .append("text")
            .attr("class", "link-label")
            .attr("text-anchor", "middle")
            .text(d => d.predicate);

        const node = g.append("g")
            .selectAll("circle")
            .data(graphData.nodes)
            .enter()
            .append("circle")
            .attr("class", "node")
            .attr("r", d => d.radius)
            .attr("fill", d => d.color)
            .call(d3.drag()
                .on("start", dragstarted)
                .on("drag", dragged)
                .on("end", dragended));

        const label = g.append("g")
            .selectAll("text")
            .data(graphData.nodes)
            .enter()
            .append("text")
            .attr("class", "node-label")
            .attr("dx", d => d.radius + 4)
            .attr("dy", ".35em")
            .text(d => d.label);

        node.append("title")
            .text(d => d.label + " (" + d.type + ", degree " + d.degree + ")");

        link.append("title")
            .text(d => d.predicate + " x" + d.weight + (d.evidence ? "\n" + d.evidence.join("\n") : ""));

        function ticked() {
            link
                .attr("x1", d => d.source.x)
                .attr("y1", d => d.source.y)
                .attr("x2", d => {
                    const dx = d.target.x - d.source.x, dy = d.target.y - d.source.y;
                    const dist = Math.sqrt(dx * dx + dy * dy) || 1;
                    return d.target.x - dx / dist * d.target.radius;
                })
                .attr("y2", d => {
                    const dx = d.target.x - d.source.x, dy = d.target.y - d.source.y;
                    const dist = Math.sqrt(dx * dx + dy * dy) || 1;
                    return d.target.y - dy / dist * d.target.radius;
                });

            linkLabel
                .attr("x", d => (d.source.x + d.target.x) / 2)
                .attr("y", d => (d.source.y + d.target.y) / 2);

            node
                .attr("cx", d => d.x)
                .attr("cy", d => d.y);

            label
                .attr("x", d => d.x)
                .attr("y", d => d.y);
        }

        simulation.on("tick", ticked);
        if (!physics) {
            simulation.stop();
            for (let i = 0; i < 300; i++) simulation.tick();
            ticked();
        }

        d3.select("#node-type-filter").on("change", function() {
            const selectedType = this.value;

            if (selectedType === "all") {
                node.style("visibility", "visible");
                link.style("visibility", "visible");
                linkLabel.style("visibility", "visible");
                label.style("visibility", "visible");
                return;
            }

            const shown = d => d.type === selectedType;
            const edgeShown = d => shown(d.source) || shown(d.target);
            node.style("visibility", d => shown(d) ? "visible" : "hidden");
            label.style("visibility", d => shown(d) ? "visible" : "hidden");
            link.style("visibility", d => edgeShown(d) ? "visible" : "hidden");
            linkLabel.style("visibility", d => edgeShown(d) ? "visible" : "hidden");
        });

        function dragstarted(event, d) {
            if (physics && !event.active) simulation.alphaTarget(0.3).restart();
            d.fx = d.x;
            d.fy = d.y;
        }

        function dragged(event, d) {
            d.fx = event.x;
            d.fy = event.y;
            if (!physics) {
                d.x = event.x;
                d.y = event.y;
                ticked();
            }
        }

        function dragended(event, d) {
            if (physics && !event.active) simulation.alphaTarget(0);
            if (physics) {
                d.fx = null;
                d.fy = null;
            }
        }
    </script>
</body>
</html>
`

var pageTemplate = template.Must(template.New("d3").Parse(d3Template))

// Render writes a standalone HTML page with a force layout of the graph.
func Render(w io.Writer, g *graph.KnowledgeGraphData, opts Options) error {
	if opts.Height <= 0 {
		opts.Height = DefaultOptions().Height
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	graphData, err := json.Marshal(layoutData(g))
	if err != nil {
		return errors.Wrap(err, "encode graph")
	}

	data := struct {
		Title     string
		Height    int
		Physics   bool
		GraphData template.JS
		NodeCount int
		EdgeCount int
	}{
		Title:     opts.Title,
		Height:    opts.Height,
		Physics:   opts.Physics,
		GraphData: template.JS(graphData),
		NodeCount: len(g.Nodes),
		EdgeCount: len(g.Edges),
	}

	return errors.Wrap(pageTemplate.Execute(w, data), "render graph")
}

// RenderString renders the page into a string, for embedding in another page.
func RenderString(g *graph.KnowledgeGraphData, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, g, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func layoutData(g *graph.KnowledgeGraphData) renderData {
	degrees := algorithms.Degrees(g)
	data := renderData{
		Nodes: make([]renderNode, 0, len(g.Nodes)),
		Edges: make([]renderEdge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		data.Nodes = append(data.Nodes, renderNode{
			ID:       n.ID,
			Label:    n.Label,
			Type:     n.Type,
			Color:    ColorFor(n.Type),
			Degree:   degrees[n.ID],
			Radius:   NodeRadius(degrees[n.ID]),
			Mentions: n.Mentions,
			Sources:  n.Sources,
		})
	}
	for _, e := range g.Edges {
		data.Edges = append(data.Edges, renderEdge{
			Source:    e.Source,
			Target:    e.Target,
			Predicate: e.Predicate,
			Weight:    e.Weight,
			Evidence:  e.Evidence,
		})
	}
	return data
}

// NodeRadius grows with the square root of the degree, capped at 24px.
func NodeRadius(degree int) float64 {
	return math.Min(6+3*math.Sqrt(float64(degree)), 24)
}

// D3Visualizer writes D3.js-based visualizations of knowledge graphs to a file
type D3Visualizer struct {
	outputPath string
	options    Options
}

// NewD3Visualizer creates a new D3.js visualizer
func NewD3Visualizer(outputPath string, opts Options) *D3Visualizer {
	return &D3Visualizer{
		outputPath: outputPath,
		options:    opts,
	}
}

// Visualize generates an HTML visualization of the knowledge graph
func (v *D3Visualizer) Visualize(g *graph.KnowledgeGraphData) error {
	if err := os.MkdirAll(filepath.Dir(v.outputPath), 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	var buf bytes.Buffer
	if err := Render(&buf, g, v.options); err != nil {
		return err
	}

	return errors.Wrapf(os.WriteFile(v.outputPath, buf.Bytes(), 0644), "write %s", v.outputPath)
}
