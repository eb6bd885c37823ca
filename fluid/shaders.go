// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

// wgslParams is the uniform parameter block shared by all kernels.
// It must match the [Params] Go struct layout exactly.
const wgslParams = `
struct Params {
  width: u32,
  height: u32,
  jacobi_iters: u32,
  _pad0: u32,
  dt: f32,
  fade: f32,
  dye_radius: f32,
  impulse: f32,
};
@group(0) @binding(0) var<uniform> p: Params;

fn idx(x: u32, y: u32) -> u32 { return y * p.width + x; }
fn cidx(x: i32, maxv: u32) -> u32 { return u32(clamp(x, 0, i32(maxv) - 1)); }
`

// initWGSL seeds a Gaussian-damped tangential vortex in the velocity
// field and a radial dye blob, deterministically per (width, height,
// dye_radius, impulse).
const initWGSL = wgslParams + `
@group(0) @binding(1) var<storage, read_write> vel: array<vec2<f32>>;
@group(0) @binding(2) var<storage, read_write> dye: array<f32>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
  if (gid.x >= p.width || gid.y >= p.height) { return; }
  let uv = (vec2<f32>(f32(gid.x), f32(gid.y)) + vec2<f32>(0.5, 0.5)) / vec2<f32>(f32(p.width), f32(p.height));
  let c = uv - vec2<f32>(0.5, 0.5);
  let r = length(c);
  let id = idx(gid.x, gid.y);
  let swirl = vec2<f32>(-c.y, c.x) * p.impulse * exp(-30.0 * r * r);
  vel[id] = swirl;
  dye[id] = select(0.0, 1.0 - r / max(p.dye_radius, 0.01), r <= p.dye_radius);
}
`

// advectVelWGSL is semi-Lagrangian self-advection of velocity with mild
// damping and sustained tangential forcing near the grid center.
// Edge cells are forced to zero velocity (no-flux boundary).
const advectVelWGSL = wgslParams + `
@group(0) @binding(1) var<storage, read> src: array<vec2<f32>>;
@group(0) @binding(2) var<storage, read_write> dst: array<vec2<f32>>;

fn sample_vel(pos: vec2<f32>) -> vec2<f32> {
  let x = clamp(pos.x, 0.0, f32(p.width) - 1.001);
  let y = clamp(pos.y, 0.0, f32(p.height) - 1.001);
  let x0 = i32(floor(x));
  let y0 = i32(floor(y));
  let x1 = x0 + 1;
  let y1 = y0 + 1;
  let fx = fract(x);
  let fy = fract(y);
  let a = src[idx(cidx(x0, p.width), cidx(y0, p.height))];
  let b = src[idx(cidx(x1, p.width), cidx(y0, p.height))];
  let c = src[idx(cidx(x0, p.width), cidx(y1, p.height))];
  let d = src[idx(cidx(x1, p.width), cidx(y1, p.height))];
  return mix(mix(a, b, fx), mix(c, d, fx), fy);
}

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
  if (gid.x >= p.width || gid.y >= p.height) { return; }
  let id = idx(gid.x, gid.y);
  let edge = gid.x == 0u || gid.y == 0u || gid.x == (p.width - 1u) || gid.y == (p.height - 1u);
  if (edge) {
    dst[id] = vec2<f32>(0.0, 0.0);
    return;
  }

  let pos = vec2<f32>(f32(gid.x), f32(gid.y));
  let v = src[id];
  let back = pos - p.dt * v;

  var v_next = sample_vel(back) * 0.999;
  let center = vec2<f32>(f32(p.width) * 0.5, f32(p.height) * 0.5);
  let rel = pos - center;
  let r = length(rel) / max(f32(min(p.width, p.height)), 1.0);
  if (r <= p.dye_radius) {
    let tangential = normalize(vec2<f32>(-rel.y, rel.x) + vec2<f32>(1e-4, 0.0));
    let falloff = 1.0 - r / max(p.dye_radius, 1e-3);
    v_next = v_next + tangential * (p.impulse * p.dt * falloff);
  }

  dst[id] = v_next;
}
`

// divergenceWGSL computes central-difference divergence of the advected
// velocity, with neighbor indices clamped at the grid bounds.
const divergenceWGSL = wgslParams + `
@group(0) @binding(1) var<storage, read> vel: array<vec2<f32>>;
@group(0) @binding(2) var<storage, read_write> div: array<f32>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
  if (gid.x >= p.width || gid.y >= p.height) { return; }
  let x = i32(gid.x);
  let y = i32(gid.y);
  let vl = vel[idx(cidx(x - 1, p.width), cidx(y, p.height))].x;
  let vr = vel[idx(cidx(x + 1, p.width), cidx(y, p.height))].x;
  let vb = vel[idx(cidx(x, p.width), cidx(y - 1, p.height))].y;
  let vt = vel[idx(cidx(x, p.width), cidx(y + 1, p.height))].y;
  div[idx(gid.x, gid.y)] = 0.5 * ((vr - vl) + (vt - vb));
}
`

// jacobiWGSL is one Jacobi relaxation pass of the pressure Poisson
// equation, reading p_in and writing p_out (ping-pong across iterations).
const jacobiWGSL = wgslParams + `
@group(0) @binding(1) var<storage, read> p_in: array<f32>;
@group(0) @binding(2) var<storage, read> div: array<f32>;
@group(0) @binding(3) var<storage, read_write> p_out: array<f32>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
  if (gid.x >= p.width || gid.y >= p.height) { return; }
  let x = i32(gid.x);
  let y = i32(gid.y);
  let pl = p_in[idx(cidx(x - 1, p.width), cidx(y, p.height))];
  let pr = p_in[idx(cidx(x + 1, p.width), cidx(y, p.height))];
  let pb = p_in[idx(cidx(x, p.width), cidx(y - 1, p.height))];
  let pt = p_in[idx(cidx(x, p.width), cidx(y + 1, p.height))];
  let d = div[idx(gid.x, gid.y)];
  p_out[idx(gid.x, gid.y)] = (pl + pr + pb + pt - d) * 0.25;
}
`

// projectWGSL subtracts the pressure gradient from the advected
// velocity, and re-enforces zero velocity at edge cells.
const projectWGSL = wgslParams + `
@group(0) @binding(1) var<storage, read> vel: array<vec2<f32>>;
@group(0) @binding(2) var<storage, read> pressure: array<f32>;
@group(0) @binding(3) var<storage, read_write> out_vel: array<vec2<f32>>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
  if (gid.x >= p.width || gid.y >= p.height) { return; }
  let x = i32(gid.x);
  let y = i32(gid.y);
  let pl = pressure[idx(cidx(x - 1, p.width), cidx(y, p.height))];
  let pr = pressure[idx(cidx(x + 1, p.width), cidx(y, p.height))];
  let pb = pressure[idx(cidx(x, p.width), cidx(y - 1, p.height))];
  let pt = pressure[idx(cidx(x, p.width), cidx(y + 1, p.height))];
  let grad = vec2<f32>(pr - pl, pt - pb) * 0.5;

  let edge = gid.x == 0u || gid.y == 0u || gid.x == (p.width - 1u) || gid.y == (p.height - 1u);
  out_vel[idx(gid.x, gid.y)] = select(vel[idx(gid.x, gid.y)] - grad, vec2<f32>(0.0, 0.0), edge);
}
`

// advectDyeWGSL advects the dye scalar along the post-projection
// velocity field with bilinear sampling at the back-traced position.
const advectDyeWGSL = wgslParams + `
@group(0) @binding(1) var<storage, read> vel: array<vec2<f32>>;
@group(0) @binding(2) var<storage, read> dye_src: array<f32>;
@group(0) @binding(3) var<storage, read_write> dye_dst: array<f32>;

fn sample_dye(pos: vec2<f32>) -> f32 {
  let x = clamp(pos.x, 0.0, f32(p.width) - 1.001);
  let y = clamp(pos.y, 0.0, f32(p.height) - 1.001);
  let x0 = i32(floor(x));
  let y0 = i32(floor(y));
  let x1 = x0 + 1;
  let y1 = y0 + 1;
  let fx = fract(x);
  let fy = fract(y);
  let a = dye_src[idx(cidx(x0, p.width), cidx(y0, p.height))];
  let b = dye_src[idx(cidx(x1, p.width), cidx(y0, p.height))];
  let c = dye_src[idx(cidx(x0, p.width), cidx(y1, p.height))];
  let d = dye_src[idx(cidx(x1, p.width), cidx(y1, p.height))];
  return mix(mix(a, b, fx), mix(c, d, fx), fy);
}

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
  if (gid.x >= p.width || gid.y >= p.height) { return; }
  let id = idx(gid.x, gid.y);
  let pos = vec2<f32>(f32(gid.x), f32(gid.y));
  let back = pos - p.dt * vel[id];
  dye_dst[id] = sample_dye(back);
}
`

// fadeWGSL decays the dye field and trickles fresh dye into the small
// center source region, so the field does not decay to zero on long runs.
const fadeWGSL = wgslParams + `
@group(0) @binding(1) var<storage, read> src: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
  if (gid.x >= p.width || gid.y >= p.height) { return; }
  let uv = (vec2<f32>(f32(gid.x), f32(gid.y)) + vec2<f32>(0.5, 0.5)) / vec2<f32>(f32(p.width), f32(p.height));
  let c = uv - vec2<f32>(0.5, 0.5);
  let r = length(c);
  let id = idx(gid.x, gid.y);
  let source = select(0.0, 0.02, r <= p.dye_radius * 0.4);
  dst[id] = src[id] * p.fade + source;
}
`

// Shaders returns the kernel WGSL sources by pipeline name.
// Exposed for shader validation tooling and tests.
func Shaders() map[string]string {
	return map[string]string{
		"fluid-init":       initWGSL,
		"fluid-advect-vel": advectVelWGSL,
		"fluid-divergence": divergenceWGSL,
		"fluid-jacobi":     jacobiWGSL,
		"fluid-project":    projectWGSL,
		"fluid-advect-dye": advectDyeWGSL,
		"fluid-fade":       fadeWGSL,
	}
}
